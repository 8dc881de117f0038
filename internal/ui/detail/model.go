package detail

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/gateway"
	"github.com/dqtran/inboxagent/internal/keys"
	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/internal/theme"
)

// BackMsg signals the parent to close the detail view.
type BackMsg struct{}

// ProcessedMsg signals the parent that a processing run succeeded and
// the collection and stats need a refresh.
type ProcessedMsg struct {
	Email model.Email
}

// processResultMsg carries the outcome of a processing request.
type processResultMsg struct {
	emailID        int
	email          *model.Email
	draftRequested bool
	err            error
}

// draftsLoadedMsg carries the outcome of a draft registry reload.
type draftsLoadedMsg struct {
	emailID int
	drafts  []model.Draft
	err     error
}

// procState is the explicit in-flight state machine for processing.
// The guard is structural: process requests are only issued from
// procIdle, so a second concurrent request cannot exist.
type procState int

const (
	procIdle procState = iota
	procPending
	procFailed
)

// Model is the focused-email view. It owns the per-email processing
// orchestration and the draft history for the open email.
type Model struct {
	gw        *gateway.Gateway
	logger    *zap.Logger
	keys      *keys.KeyMap
	email     *model.Email
	drafts    []model.Draft
	showDraft bool
	viewport  viewport.Model
	state     procState
	procErr   error
	width     int
	height    int
}

// New creates a new detail view model.
func New(gw *gateway.Gateway, logger *zap.Logger, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		gw:       gw,
		logger:   logger,
		keys:     k,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetEmail focuses the given email and kicks off a draft reload for it.
// Any processing state from a previously focused email is discarded.
func (m *Model) SetEmail(email model.Email) tea.Cmd {
	m.email = &email
	m.drafts = nil
	m.showDraft = false
	m.state = procIdle
	m.procErr = nil
	m.refreshViewport()
	m.viewport.GotoTop()
	return m.reloadDrafts()
}

// Email returns the currently focused email snapshot, or nil.
func (m Model) Email() *model.Email {
	return m.email
}

// Pending reports whether a processing request is in flight.
func (m Model) Pending() bool {
	return m.state == procPending
}

// LatestDraft returns the most recently created draft for the focused
// email, or nil when none exist.
func (m Model) LatestDraft() *model.Draft {
	if len(m.drafts) == 0 {
		return nil
	}
	return &m.drafts[len(m.drafts)-1]
}

// reloadDrafts fetches the draft history for the focused email.
func (m Model) reloadDrafts() tea.Cmd {
	if m.email == nil {
		return nil
	}

	id := m.email.ID
	gw := m.gw
	return func() tea.Msg {
		drafts, err := gw.ListDrafts(context.Background(), id)
		return draftsLoadedMsg{emailID: id, drafts: drafts, err: err}
	}
}

// process issues a processing request for the focused email. A no-op
// unless the orchestrator is idle.
func (m *Model) process(tasks []string) tea.Cmd {
	if m.email == nil || m.state != procIdle {
		return nil
	}

	m.state = procPending

	id := m.email.ID
	gw := m.gw
	draftRequested := false
	for _, t := range tasks {
		if t == gateway.TaskGenerateDraft {
			draftRequested = true
		}
	}

	return func() tea.Msg {
		email, err := gw.ProcessEmail(context.Background(), id, tasks)
		return processResultMsg{
			emailID:        id,
			email:          email,
			draftRequested: draftRequested,
			err:            err,
		}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case processResultMsg:
		return m.handleProcessResult(msg)

	case draftsLoadedMsg:
		// Results for a previously focused email are ignored.
		if m.email == nil || msg.emailID != m.email.ID {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("draft reload failed",
				zap.Int("email_id", msg.emailID),
				zap.Error(msg.err),
			)
			return m, nil
		}
		m.drafts = msg.drafts
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleProcessResult folds a settled processing request back into the
// view. The in-flight guard is cleared on every path.
func (m Model) handleProcessResult(msg processResultMsg) (Model, tea.Cmd) {
	// A result for an email that is no longer focused still clears the
	// guard, but must not touch the displayed snapshot.
	if m.email == nil || msg.emailID != m.email.ID {
		m.state = procIdle
		return m, nil
	}

	if msg.err != nil {
		m.state = procFailed
		m.procErr = msg.err
		m.logger.Error("processing failed",
			zap.Int("email_id", msg.emailID),
			zap.Error(msg.err),
		)
		return m, nil
	}

	// The server response is authoritative for all fields, whether or
	// not they were part of the requested task set.
	m.state = procIdle
	m.email = msg.email
	m.refreshViewport()

	email := *msg.email
	cmds := []tea.Cmd{
		func() tea.Msg { return ProcessedMsg{Email: email} },
	}
	if msg.draftRequested {
		m.showDraft = true
		cmds = append(cmds, m.reloadDrafts())
	}
	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the detail view.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	// A failed run shows a blocking notice; any dismiss key returns the
	// orchestrator to idle without touching the displayed snapshot.
	if m.state == procFailed {
		switch msg.String() {
		case "enter", "esc":
			m.state = procIdle
			m.procErr = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		if m.state == procPending {
			return m, nil
		}
		return m, func() tea.Msg {
			return BackMsg{}
		}

	case key.Matches(msg, m.keys.Analyze):
		return m, m.process(gateway.AnalyzeTasks())

	case key.Matches(msg, m.keys.AnalyzeDraft):
		return m, m.process(gateway.AnalyzeDraftTasks())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refreshViewport re-renders the email content into the viewport.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderContent())
}

// View renders the detail view.
func (m Model) View() string {
	if m.email == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No email selected")
	}

	if m.state == procFailed {
		return m.renderErrorNotice()
	}

	content := m.viewport.View()
	if m.state == procPending {
		pending := theme.HelpStyle.Render("Processing... controls disabled")
		return lipgloss.JoinVertical(lipgloss.Left, content, pending)
	}
	return content
}

// renderErrorNotice shows the blocking, dismissible processing error.
func (m Model) renderErrorNotice() string {
	notice := theme.ErrorNoticeStyle.
		Width(min(m.width-4, 76)).
		Render(fmt.Sprintf(
			"Processing failed.\n\n%v\n\nPress enter to dismiss.",
			m.procErr,
		))

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		notice,
	)
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	email := m.email
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(email.Subject))

	fromStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	sections = append(sections, fromStyle.Render(
		fmt.Sprintf("From: %s <%s>", email.SenderName, email.Sender),
	))

	badges := []string{
		theme.CategoryStyle(email.Category).Render(email.Category),
		theme.PriorityStyle(email.Priority).Render(email.Priority),
	}
	if email.Sentiment != "" {
		badges = append(badges, theme.SentimentStyle().Render(email.Sentiment))
	}
	sections = append(sections, strings.Join(badges, " "))

	sections = append(sections, "")
	sections = append(sections, email.Body)

	if items := email.ParseActionItems(); email.HasActionItems && len(items) > 0 {
		sections = append(sections, "")
		sections = append(sections, titleStyle.Render("Action Items"))
		for _, item := range items {
			line := "  - " + item.Task
			if item.Deadline != "" {
				line += " (due " + item.Deadline + ")"
			}
			if item.Priority != "" {
				line += " " + theme.PriorityStyle(item.Priority).Render(item.Priority)
			}
			sections = append(sections, line)
		}
	}

	if m.showDraft {
		if draft := m.LatestDraft(); draft != nil {
			draftBody := fmt.Sprintf("Subject: %s\n\n%s", draft.Subject, draft.Body)
			sections = append(sections, "")
			sections = append(sections, theme.DraftPanelStyle.
				Width(min(m.width-6, 76)).
				Render(titleStyle.Render("Draft Reply")+"\n\n"+draftBody))
		}
	}

	return strings.Join(sections, "\n")
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refreshViewport()
}
