package inbox

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

func subjects(m Model) []string {
	out := make([]string, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		out = append(out, it.(Item).Email.Subject)
	}
	return out
}

func TestReloadPopulatesList(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes"})
	fb.SeedEmail(model.Email{ID: 2, Subject: "lunch?"})

	cmd := m.Reload()
	require.NotNil(t, cmd)
	assert.True(t, m.Loading())

	m, _ = m.Update(cmd())

	assert.False(t, m.Loading())
	assert.Equal(t, []string{"standup notes", "lunch?"}, subjects(m))
}

func TestStaleReloadDiscarded(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes", Category: model.CategoryWork})
	fb.SeedEmail(model.Email{ID: 2, Subject: "weekend plans", Category: model.CategoryPersonal})

	// First reload fetches everything, then a filter change supersedes it
	// before the first result lands.
	first := m.Reload()
	firstResult := first()

	second := m.SetFilter(model.CategoryPersonal)
	secondResult := second()

	// Later reload's result arrives first; the earlier one must not
	// overwrite it regardless of completion order.
	m, _ = m.Update(secondResult)
	m, _ = m.Update(firstResult)

	assert.Equal(t, []string{"weekend plans"}, subjects(m))
	assert.False(t, m.Loading())
}

func TestReloadErrorKeepsPreviousList(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes"})

	cmd := m.Reload()
	m, _ = m.Update(cmd())
	require.Equal(t, []string{"standup notes"}, subjects(m))

	m, _ = m.Update(EmailsLoadedMsg{Seq: m.seq + 1, Err: assert.AnError})
	// Stale error: ignored entirely.
	assert.Equal(t, []string{"standup notes"}, subjects(m))

	m.Reload()
	m, _ = m.Update(EmailsLoadedMsg{Seq: m.seq, Err: assert.AnError})

	// A failed fetch keeps the last good collection on screen.
	assert.Equal(t, []string{"standup notes"}, subjects(m))
	assert.False(t, m.Loading())
}

func TestSetFilterReloadsFilteredCollection(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes", Category: model.CategoryWork})
	fb.SeedEmail(model.Email{ID: 2, Subject: "weekend plans", Category: model.CategoryPersonal})

	cmd := m.SetFilter(model.CategoryWork)
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	assert.Equal(t, model.CategoryWork, m.Filter())
	assert.Equal(t, []string{"standup notes"}, subjects(m))
}

func TestReplaceSwapsSnapshotInPlace(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes"})
	fb.SeedEmail(model.Email{ID: 2, Subject: "lunch?"})

	cmd := m.Reload()
	m, _ = m.Update(cmd())

	m.Replace(model.Email{ID: 2, Subject: "lunch?", IsRead: true, Category: model.CategoryPersonal})

	items := m.list.Items()
	require.Len(t, items, 2)
	updated := items[1].(Item).Email
	assert.True(t, updated.IsRead)
	assert.Equal(t, model.CategoryPersonal, updated.Category)
	// The other row is untouched.
	assert.False(t, items[0].(Item).Email.IsRead)
}

func TestEnterEmitsSelectedEmail(t *testing.T) {
	fb, m := newTestModel(t)
	fb.SeedEmail(model.Email{ID: 1, Subject: "standup notes"})

	cmd := m.Reload()
	m, _ = m.Update(cmd())

	_, selCmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, selCmd)

	msg, ok := selCmd().(SelectedEmailMsg)
	require.True(t, ok)
	assert.Equal(t, 1, msg.Email.ID)
}

func TestEnterOnEmptyListIsNoop(t *testing.T) {
	_, m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}
