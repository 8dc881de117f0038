package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/gateway"
	"github.com/dqtran/inboxagent/internal/keys"
	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/internal/theme"
)

// BackMsg signals the parent to close the chat panel.
type BackMsg struct{}

// responseMsg carries the settled outcome of a chat send.
type responseMsg struct {
	text string
	err  error
}

// greeting is the assistant message shown before any exchange.
const greeting = "Hello! I'm your email assistant. I can help you " +
	"analyze your inbox, prioritize tasks, and answer questions about " +
	"your emails. What would you like to know?"

// fallbackNotice is appended in place of a reply when a send fails.
// Chat failures are non-fatal; the user just tries again.
const fallbackNotice = "Sorry, I encountered an error. Please make " +
	"sure the backend is reachable and try again."

// Model is the assistant chat panel. The transcript is append-only and
// session-scoped; a pending send blocks further sends but nothing else.
type Model struct {
	gw       *gateway.Gateway
	logger   *zap.Logger
	keys     *keys.KeyMap
	input    textarea.Model
	viewport viewport.Model
	messages []model.ChatMessage
	pending  bool
	width    int
	height   int
}

// New creates a new chat panel model.
func New(gw *gateway.Gateway, logger *zap.Logger, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask me about your emails..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vpHeight := height - 8 // space for input area + borders
	if vpHeight < 4 {
		vpHeight = 4
	}

	vp := viewport.New(width-4, vpHeight)
	vp.Style = lipgloss.NewStyle()

	m := Model{
		gw:     gw,
		logger: logger,
		keys:   k,
		input:  ta,
		messages: []model.ChatMessage{{
			ID:      uuid.NewString(),
			Role:    model.RoleAssistant,
			Content: greeting,
		}},
		viewport: vp,
		width:    width,
		height:   height,
	}
	m.refreshViewport()
	return m
}

// Init returns the initial command for the chat panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Pending reports whether a send is in flight.
func (m Model) Pending() bool {
	return m.pending
}

// Messages returns the transcript; exposed for tests.
func (m Model) Messages() []model.ChatMessage {
	return m.messages
}

// Update handles messages for the chat panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case responseMsg:
		return m.handleResponse(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the chat panel.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.pending {
			return m, nil
		}
		return m, func() tea.Msg {
			return BackMsg{}
		}

	case "enter":
		return m.send()
	}

	// Let the textarea handle other keys
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send issues the current input as a user message. A no-op when the
// input is blank or a send is already pending; the user message is
// appended immediately since there is nothing to reconcile against.
func (m Model) send() (Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.input.Reset()
	m.messages = append(m.messages, model.ChatMessage{
		ID:      uuid.NewString(),
		Role:    model.RoleUser,
		Content: text,
	})
	m.pending = true
	m.refreshViewport()

	gw := m.gw
	return m, func() tea.Msg {
		reply, err := gw.SendChat(context.Background(), text)
		return responseMsg{text: reply, err: err}
	}
}

// handleResponse folds a settled send back into the transcript. The
// pending guard is cleared on both outcomes.
func (m Model) handleResponse(msg responseMsg) (Model, tea.Cmd) {
	m.pending = false

	content := msg.text
	if msg.err != nil {
		m.logger.Warn("chat send failed", zap.Error(msg.err))
		content = fallbackNotice
	}

	m.messages = append(m.messages, model.ChatMessage{
		ID:      uuid.NewString(),
		Role:    model.RoleAssistant,
		Content: content,
	})
	m.refreshViewport()
	return m, nil
}

// refreshViewport re-renders the transcript and scrolls to the bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation builds the transcript display string.
func (m Model) renderConversation() string {
	var sections []string

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	assistantStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	for _, msg := range m.messages {
		var label string
		switch msg.Role {
		case model.RoleUser:
			label = userStyle.Render("You:")
		case model.RoleAssistant:
			label = assistantStyle.Render("Assistant:")
		default:
			label = roleStyle.Render(msg.Role + ":")
		}

		sections = append(sections, label)
		sections = append(sections, contentStyle.Render(msg.Content))
		sections = append(sections, "")
	}

	if m.pending {
		thinkingStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		sections = append(sections, thinkingStyle.Render("Thinking..."))
	}

	return strings.Join(sections, "\n")
}

// View renders the chat panel.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("AI Assistant")

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", min(m.width-6, 80)),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		separator,
		m.input.View(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the chat panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)

	vpHeight := height - 8
	if vpHeight < 4 {
		vpHeight = 4
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
