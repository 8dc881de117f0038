package inbox

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/gateway"
	"github.com/dqtran/inboxagent/internal/keys"
	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/internal/theme"
)

// EmailsLoadedMsg is sent when an email list fetch settles. Seq ties the
// result to the reload that issued it.
type EmailsLoadedMsg struct {
	Emails []model.Email
	Seq    uint64
	Err    error
}

// SelectedEmailMsg is sent when the user opens an email from the list.
type SelectedEmailMsg struct {
	Email model.Email
}

// Model is the inbox list view. It holds the current filtered email
// collection; reloads replace the collection wholesale and are applied
// in issue order, not completion order.
type Model struct {
	list    list.Model
	gw      *gateway.Gateway
	logger  *zap.Logger
	keys    *keys.KeyMap
	filter  string
	seq     uint64
	loading bool
	width   int
	height  int
}

// New creates a new inbox list model.
func New(gw *gateway.Gateway, logger *zap.Logger, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		gw:     gw,
		logger: logger,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the initial email list.
func (m *Model) Init() tea.Cmd {
	return m.Reload()
}

// Filter returns the active category filter; empty means all emails.
func (m Model) Filter() string {
	return m.filter
}

// SetFilter sets the category filter and reloads the collection.
// An empty category clears the filter.
func (m *Model) SetFilter(category string) tea.Cmd {
	m.filter = category
	return m.Reload()
}

// Reload issues a new list fetch for the current filter. Each reload is
// tagged with the next sequence number; results for superseded reloads
// are discarded in Update so a slow earlier fetch can never overwrite a
// newer one.
func (m *Model) Reload() tea.Cmd {
	m.seq++
	m.loading = true

	seq := m.seq
	filter := m.filter
	gw := m.gw
	return func() tea.Msg {
		emails, err := gw.ListEmails(context.Background(), filter)
		return EmailsLoadedMsg{Emails: emails, Seq: seq, Err: err}
	}
}

// Replace swaps one email in place with its updated server snapshot,
// without disturbing selection. Used when a processed email comes back
// before the follow-up reload lands.
func (m *Model) Replace(email model.Email) tea.Cmd {
	items := m.list.Items()
	for i, it := range items {
		if em, ok := it.(Item); ok && em.Email.ID == email.ID {
			return m.list.SetItem(i, Item{Email: email})
		}
	}
	return nil
}

// Update handles messages for the inbox list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EmailsLoadedMsg:
		if msg.Seq != m.seq {
			// Stale result from a superseded reload.
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.logger.Warn("email list reload failed", zap.Error(msg.Err))
			return m, nil
		}

		items := make([]list.Item, len(msg.Emails))
		for i, email := range msg.Emails {
			items[i] = Item{Email: email}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Select) {
			item, ok := m.list.SelectedItem().(Item)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedEmailMsg{Email: item.Email}
			}
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox list view.
func (m Model) View() string {
	if m.loading && len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading emails...")
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// Loading reports whether a list fetch is outstanding.
func (m Model) Loading() bool {
	return m.loading
}

// renderEmptyState shows guidance text when no emails are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter != "" {
		return style.Render("No emails in " + m.filter + ".\nPress 0 to show all emails.")
	}

	return style.Render("Inbox is empty.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
