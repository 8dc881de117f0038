package model

// Chat message roles. The transcript is append-only and session-scoped;
// nothing is persisted across runs.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in the assistant conversation.
type ChatMessage struct {
	ID      string
	Role    string
	Content string
}
