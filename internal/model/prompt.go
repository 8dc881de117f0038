package model

import "time"

// Prompt template types understood by the backend pipeline.
const (
	PromptTypeCategorization = "categorization"
	PromptTypeTaskExtraction = "task_extraction"
	PromptTypeAutoReply      = "auto_reply"
)

// PromptTemplate is a reusable prompt with {subject} and {body}
// placeholder tokens. Names are unique server-side and immutable
// after creation.
type PromptTemplate struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	PromptType string    `json:"prompt_type"`
	Content    string    `json:"content"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
