package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/gateway"
	"github.com/dqtran/inboxagent/internal/keys"
	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/internal/ui"
	"github.com/dqtran/inboxagent/internal/ui/chat"
	"github.com/dqtran/inboxagent/internal/ui/detail"
	helpview "github.com/dqtran/inboxagent/internal/ui/help"
	"github.com/dqtran/inboxagent/internal/ui/inbox"
	"github.com/dqtran/inboxagent/internal/ui/promptmgr"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewPrompts
	ViewChat
	ViewHelp
)

// invalidateMsg is the invalidation signal: any completed mutation that
// may have changed server-side counts (mark-read, processing) emits it,
// and the root model reacts by re-issuing the email list reload and the
// stats fetch. Counters are never derived locally.
type invalidateMsg struct{}

// statsLoadedMsg carries a refreshed stats snapshot.
type statsLoadedMsg struct {
	stats *model.Stats
	err   error
}

// markReadDoneMsg is sent when a fire-and-forget mark-read settles.
type markReadDoneMsg struct {
	emailID int
	err     error
}

// Model is the root Bubble Tea model that routes between the inbox,
// detail, prompt manager, and chat views and owns the stats snapshot.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	gw           *gateway.Gateway
	logger       *zap.Logger
	keys         *keys.KeyMap
	inbox        inbox.Model
	detail       detail.Model
	promptView   promptmgr.Model
	chatView     chat.Model
	helpView     helpview.Model
	stats        *model.Stats
	ready        bool
}

// New creates the root application model.
func New(gw *gateway.Gateway, logger *zap.Logger) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewInbox,
		gw:          gw,
		logger:      logger,
		keys:        k,
		inbox:       inbox.New(gw, logger, k, 80, 24),
		detail:      detail.New(gw, logger, k, 80, 24),
		promptView:  promptmgr.New(gw, logger, k, 80, 24),
		chatView:    chat.New(gw, logger, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init kicks off the initial load. The first load is an invalidation
// like any other: Update reacts to it by issuing the email list reload
// and the stats fetch. Issuing the reload here instead would tag it on
// a model copy that Init cannot return.
func (m Model) Init() tea.Cmd {
	return m.invalidate()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inbox.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.promptView.SetSize(contentWidth, contentHeight)
		m.chatView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay out.
		return m.updateActiveView(msg)

	case invalidateMsg:
		return m, tea.Batch(
			m.inbox.Reload(),
			m.fetchStats(),
		)

	case statsLoadedMsg:
		if msg.err != nil {
			// Previous snapshot stays; counts are refreshed again on
			// the next mutation.
			m.logger.Warn("stats refresh failed", zap.Error(msg.err))
			return m, nil
		}
		m.stats = msg.stats
		return m, nil

	case inbox.EmailsLoadedMsg:
		// Routed at the root so reloads land even while another view
		// is on screen.
		var cmd tea.Cmd
		m.inbox, cmd = m.inbox.Update(msg)
		return m, cmd

	case inbox.SelectedEmailMsg:
		return m.focusEmail(msg.Email)

	case markReadDoneMsg:
		if msg.err != nil {
			// The email silently stays unread; no retry.
			m.logger.Warn("mark-read failed",
				zap.Int("email_id", msg.emailID),
				zap.Error(msg.err),
			)
			return m, nil
		}
		return m, m.invalidate()

	case detail.ProcessedMsg:
		// Processing may have changed category, priority, or action
		// item counts; swap the row now and reconcile with the server.
		return m, tea.Batch(
			m.inbox.Replace(msg.Email),
			m.invalidate(),
		)

	case detail.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case promptmgr.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case chat.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKey(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// focusEmail opens the detail view for the given email. When the email
// is unread, a mark-read request is fired without blocking the focus;
// its completion triggers the invalidation signal.
func (m Model) focusEmail(email model.Email) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewDetail

	cmds := []tea.Cmd{m.detail.SetEmail(email)}
	if !email.IsRead {
		cmds = append(cmds, m.markRead(email.ID))
	}
	return m, tea.Batch(cmds...)
}

// handleGlobalKey processes keys that work across views. Returns false
// when the key should fall through to the active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return true, m, tea.Quit
	}

	// Views with a focused text input consume everything else.
	if m.textInputActive() {
		return false, m, nil
	}

	// While a processing request is in flight the detail view keeps
	// the user on the notice; leaving it would orphan the result.
	if m.currentView == ViewDetail && m.detail.Pending() {
		return false, m, nil
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewInbox {
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "0":
		mdl, cmd := m.selectCategory("")
		return true, mdl, cmd

	case "1":
		mdl, cmd := m.selectCategory(model.CategoryWork)
		return true, mdl, cmd

	case "2":
		mdl, cmd := m.selectCategory(model.CategoryImportant)
		return true, mdl, cmd

	case "3":
		mdl, cmd := m.selectCategory(model.CategoryPersonal)
		return true, mdl, cmd

	case "4":
		mdl, cmd := m.selectCategory(model.CategoryPromotional)
		return true, mdl, cmd

	case "p":
		if m.currentView == ViewInbox {
			m.previousView = m.currentView
			m.currentView = ViewPrompts
			return true, m, m.promptView.Init()
		}

	case "c":
		if m.currentView == ViewInbox {
			m.previousView = m.currentView
			m.currentView = ViewChat
			return true, m, m.chatView.Focus()
		}

	case "r":
		if m.currentView == ViewInbox {
			return true, m, tea.Batch(
				m.inbox.Reload(),
				m.fetchStats(),
			)
		}
	}

	return false, m, nil
}

// selectCategory applies a category filter and always returns to the
// inbox, whatever view was active. An empty category is the "All
// Emails" action and clears the filter.
func (m Model) selectCategory(category string) (tea.Model, tea.Cmd) {
	m.currentView = ViewInbox
	return m, m.inbox.SetFilter(category)
}

// textInputActive reports whether the active view owns a focused text
// input, in which case global single-letter keys must not be
// intercepted.
func (m Model) textInputActive() bool {
	if m.currentView == ViewChat {
		return true
	}
	if m.currentView == ViewPrompts && m.promptView.Editing() {
		return true
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewPrompts:
		m.promptView, cmd = m.promptView.Update(msg)
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// invalidate returns the invalidation signal as a command.
func (m Model) invalidate() tea.Cmd {
	return func() tea.Msg {
		return invalidateMsg{}
	}
}

// fetchStats returns a command that refreshes the stats snapshot.
func (m Model) fetchStats() tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		stats, err := gw.GetStats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}

// markRead returns a command that marks an email read server-side.
func (m Model) markRead(emailID int) tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		err := gw.MarkRead(context.Background(), emailID)
		return markReadDoneMsg{emailID: emailID, err: err}
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.statsSummary())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inbox.View()
	case ViewDetail:
		return m.detail.View()
	case ViewPrompts:
		return m.promptView.View()
	case ViewChat:
		return m.chatView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// headerTitle returns the left-hand header text for the current view.
func (m Model) headerTitle() string {
	switch m.currentView {
	case ViewPrompts:
		return "Email Agent - Prompts"
	case ViewChat:
		return "Email Agent - AI Chat"
	case ViewDetail:
		return "Email Agent - Email"
	default:
		if f := m.inbox.Filter(); f != "" {
			return "Email Agent - " + f
		}
		return "Email Agent - All Emails"
	}
}

// statsSummary returns the right-hand header counters.
func (m Model) statsSummary() string {
	if m.stats == nil {
		return ""
	}
	return fmt.Sprintf(
		"%d emails | %d unread | %d tasks | %d drafts",
		m.stats.TotalEmails,
		m.stats.UnreadCount,
		m.stats.ActionItemsCount,
		m.stats.DraftsCount,
	)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "a analyze | g analyze + draft | j/k scroll | esc back"
	case ViewPrompts:
		return "n new | e edit | d delete | esc back"
	case ViewChat:
		return "enter send | esc close"
	default:
		return "enter open | " + m.categoryHints() + " | p prompts | c chat | ? help"
	}
}

// categoryHints renders the sidebar-equivalent category filters with
// their server-side counts.
func (m Model) categoryHints() string {
	hints := "0 all"
	for i, category := range model.Categories {
		count := 0
		if m.stats != nil {
			count = m.stats.Categories[category]
		}
		if count > 0 {
			hints += fmt.Sprintf(" | %d %s(%d)", i+1, category, count)
		} else {
			hints += fmt.Sprintf(" | %d %s", i+1, category)
		}
	}
	return hints
}
