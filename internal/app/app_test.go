package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/internal/ui/detail"
	"github.com/dqtran/inboxagent/internal/ui/inbox"
	"github.com/dqtran/inboxagent/tests/testutil"
)

func newTestApp(t *testing.T) (*testutil.FakeBackend, Model) {
	t.Helper()
	fb, gw := testutil.NewServer(t)
	return fb, New(gw, zap.NewNop())
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// drive runs a command tree to quiescence, feeding every resulting
// message back into Update, the way the Bubble Tea runtime would.
func drive(m Model, cmd tea.Cmd) Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		mdl, next := m.Update(msg)
		m = mdl.(Model)
		queue = append(queue, next)
	}
	return m
}

func TestInitLoadsInboxAndStats(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes"})
	fb.SeedEmail(model.Email{ID: 2, Subject: "lunch?", IsRead: true})

	m = drive(m, m.Init())

	require.NotNil(t, m.stats)
	assert.Equal(t, 2, m.stats.TotalEmails)
	assert.Equal(t, 1, m.stats.UnreadCount)
	assert.False(t, m.inbox.Loading())
}

func TestFocusUnreadEmailMarksReadAndRefreshesCounts(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes"})
	m = drive(m, m.Init())
	require.Equal(t, 1, m.stats.UnreadCount)

	mdl, cmd := m.Update(inbox.SelectedEmailMsg{Email: *fb.EmailByID(1)})
	m = drive(mdl.(Model), cmd)

	assert.Equal(t, ViewDetail, m.currentView)
	assert.True(t, fb.EmailByID(1).IsRead)
	// Counts come back from the server, not a local decrement.
	assert.Equal(t, 0, m.stats.UnreadCount)
}

func TestFocusReadEmailSkipsMarkRead(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes", IsRead: true})
	m = drive(m, m.Init())

	// Mark-read would fail loudly if it were issued.
	fb.FailMarkRead = true

	mdl, cmd := m.Update(inbox.SelectedEmailMsg{Email: *fb.EmailByID(1)})
	m = drive(mdl.(Model), cmd)

	assert.Equal(t, ViewDetail, m.currentView)
}

func TestMarkReadFailureLeavesEmailUnread(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes"})
	m = drive(m, m.Init())
	fb.FailMarkRead = true

	mdl, cmd := m.Update(inbox.SelectedEmailMsg{Email: *fb.EmailByID(1)})
	m = drive(mdl.(Model), cmd)

	// The failure is logged and the email just stays unread.
	assert.Equal(t, ViewDetail, m.currentView)
	assert.False(t, fb.EmailByID(1).IsRead)
	assert.Equal(t, 1, m.stats.UnreadCount)
}

func TestProcessedEmailRefreshesCounts(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "quarterly report", IsRead: true})
	m = drive(m, m.Init())
	require.Equal(t, 0, m.stats.ActionItemsCount)

	// Simulate the backend having extracted action items during a
	// processing run before the notification arrives.
	fb.Emails[0].HasActionItems = true
	updated := *fb.EmailByID(1)

	mdl, cmd := m.Update(detail.ProcessedMsg{Email: updated})
	m = drive(mdl.(Model), cmd)

	assert.Equal(t, 1, m.stats.ActionItemsCount)
}

func TestCategoryKeyReturnsToInboxFromAnyView(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes", Category: model.CategoryWork})
	fb.SeedEmail(model.Email{ID: 2, Subject: "weekend plans", Category: model.CategoryPersonal})
	m = drive(m, m.Init())

	m.currentView = ViewPrompts

	mdl, cmd := m.Update(keyPress('1'))
	m = drive(mdl.(Model), cmd)

	assert.Equal(t, ViewInbox, m.currentView)
	assert.Equal(t, model.CategoryWork, m.inbox.Filter())
}

func TestAllEmailsKeyClearsFilter(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes", Category: model.CategoryWork})
	fb.SeedEmail(model.Email{ID: 2, Subject: "weekend plans", Category: model.CategoryPersonal})
	m = drive(m, m.Init())

	mdl, cmd := m.Update(keyPress('1'))
	m = drive(mdl.(Model), cmd)
	require.Equal(t, model.CategoryWork, m.inbox.Filter())

	mdl, cmd = m.Update(keyPress('0'))
	m = drive(mdl.(Model), cmd)

	assert.Equal(t, ViewInbox, m.currentView)
	assert.Empty(t, m.inbox.Filter())
}

func TestQuitOnlyFromInbox(t *testing.T) {
	_, m := newTestApp(t)
	m = drive(m, m.Init())

	_, cmd := m.Update(keyPress('q'))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)

	m.currentView = ViewPrompts
	mdl, _ := m.Update(keyPress('q'))
	assert.Equal(t, ViewPrompts, mdl.(Model).currentView)
}

func TestCtrlCQuitsEverywhere(t *testing.T) {
	_, m := newTestApp(t)
	m.currentView = ViewChat

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestHelpToggleRestoresPreviousView(t *testing.T) {
	_, m := newTestApp(t)
	m = drive(m, m.Init())

	mdl, _ := m.Update(keyPress('?'))
	m = mdl.(Model)
	require.Equal(t, ViewHelp, m.currentView)

	mdl, _ = m.Update(keyPress('?'))
	m = mdl.(Model)
	assert.Equal(t, ViewInbox, m.currentView)
}

func TestStatsFailureKeepsLastSnapshot(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes"})
	m = drive(m, m.Init())
	require.NotNil(t, m.stats)

	mdl, _ := m.Update(statsLoadedMsg{err: assert.AnError})
	m = mdl.(Model)

	require.NotNil(t, m.stats)
	assert.Equal(t, 1, m.stats.TotalEmails)
}

func TestChatConsumesGlobalKeys(t *testing.T) {
	_, m := newTestApp(t)
	m = drive(m, m.Init())
	m.currentView = ViewChat

	// "p" is typed into the chat input, not treated as a navigation key.
	mdl, _ := m.Update(keyPress('p'))
	assert.Equal(t, ViewChat, mdl.(Model).currentView)
}

func TestHeaderSummaryShowsServerCounts(t *testing.T) {
	fb, m := newTestApp(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes", HasActionItems: true})
	m = drive(m, m.Init())

	summary := m.statsSummary()
	assert.Contains(t, summary, "1 emails")
	assert.Contains(t, summary, "1 unread")
	assert.Contains(t, summary, "1 tasks")
}
