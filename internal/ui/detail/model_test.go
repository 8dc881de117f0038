package detail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/keys"
	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/tests/testutil"
)

func newTestModel(t *testing.T) (*testutil.FakeBackend, Model) {
	t.Helper()
	fb, gw := testutil.NewServer(t)
	return fb, New(gw, zap.NewNop(), keys.DefaultKeyMap(), 80, 24)
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// collectMsgs executes a command tree synchronously, flattening batches.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collectMsgs(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestAnalyzeReplacesSnapshotAndNotifiesParent(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "quarterly report"})
	m.SetEmail(*fb.EmailByID(1))

	m, cmd := m.Update(keyPress('a'))
	require.NotNil(t, cmd)
	assert.True(t, m.Pending())

	m, settled := m.Update(cmd())
	assert.False(t, m.Pending())
	assert.Equal(t, model.CategoryWork, m.Email().Category)
	assert.Equal(t, model.PriorityHigh, m.Email().Priority)

	var notified bool
	for _, msg := range collectMsgs(settled) {
		if processed, ok := msg.(ProcessedMsg); ok {
			notified = true
			assert.Equal(t, 1, processed.Email.ID)
			assert.Equal(t, model.CategoryWork, processed.Email.Category)
		}
	}
	assert.True(t, notified, "expected a ProcessedMsg for the parent")
}

func TestAnalyzeWhilePendingIsNoop(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "quarterly report"})
	m.SetEmail(*fb.EmailByID(1))

	m, first := m.Update(keyPress('a'))
	require.NotNil(t, first)

	_, second := m.Update(keyPress('a'))
	assert.Nil(t, second)

	_, third := m.Update(keyPress('g'))
	assert.Nil(t, third)
}

func TestBackBlockedWhilePending(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "quarterly report"})
	m.SetEmail(*fb.EmailByID(1))

	m, _ = m.Update(keyPress('a'))
	require.True(t, m.Pending())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
}

func TestProcessFailureKeepsSnapshotAndDismisses(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "quarterly report", Category: model.CategoryPersonal})
	m.SetEmail(*fb.EmailByID(1))
	fb.FailProcess = true

	m, cmd := m.Update(keyPress('a'))
	require.NotNil(t, cmd)
	m, after := m.Update(cmd())

	assert.Nil(t, after)
	assert.Equal(t, procFailed, m.state)
	// The displayed snapshot is untouched by the failed run.
	assert.Equal(t, model.CategoryPersonal, m.Email().Category)

	// While the notice is up, analyze keys do nothing.
	_, blocked := m.Update(keyPress('a'))
	assert.Nil(t, blocked)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, procIdle, m.state)

	// Back out and retry work again after dismissal.
	fb.FailProcess = false
	m, retry := m.Update(keyPress('a'))
	require.NotNil(t, retry)
	assert.True(t, m.Pending())
}

func TestGenerateDraftShowsLatestDraft(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "contract review"})
	m.SetEmail(*fb.EmailByID(1))

	m, cmd := m.Update(keyPress('g'))
	require.NotNil(t, cmd)
	m, settled := m.Update(cmd())

	for _, msg := range collectMsgs(settled) {
		if loaded, ok := msg.(draftsLoadedMsg); ok {
			m, _ = m.Update(loaded)
		}
	}

	require.True(t, m.showDraft)
	draft := m.LatestDraft()
	require.NotNil(t, draft)
	assert.Equal(t, "Re: contract review", draft.Subject)
}

func TestStaleDraftResultIgnored(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "contract review"})
	m.SetEmail(*fb.EmailByID(1))

	m, _ = m.Update(draftsLoadedMsg{
		emailID: 99,
		drafts:  []model.Draft{{ID: 5, EmailID: 99, Subject: "Re: other"}},
	})

	assert.Nil(t, m.LatestDraft())
}

func TestSetEmailResetsProcessingState(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "quarterly report"})
	fb.SeedEmail(model.Email{ID: 2, Subject: "lunch?"})
	fb.FailProcess = true

	m.SetEmail(*fb.EmailByID(1))
	m, cmd := m.Update(keyPress('a'))
	m, _ = m.Update(cmd())
	require.Equal(t, procFailed, m.state)

	m.SetEmail(*fb.EmailByID(2))

	assert.Equal(t, procIdle, m.state)
	assert.Nil(t, m.procErr)
	assert.Equal(t, 2, m.Email().ID)
}

func TestStaleProcessResultClearsGuardOnly(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "quarterly report"})
	m.SetEmail(*fb.EmailByID(1))

	updated := model.Email{ID: 99, Subject: "other", Category: model.CategoryWork}
	m, cmd := m.Update(processResultMsg{emailID: 99, email: &updated})

	assert.Nil(t, cmd)
	assert.False(t, m.Pending())
	assert.Equal(t, 1, m.Email().ID)
}
