package chat

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

func typeText(m Model, text string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func enter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func TestStartsWithGreeting(t *testing.T) {
	_, m := newTestModel(t)

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Equal(t, greeting, msgs[0].Content)
}

func TestSendAppendsExchange(t *testing.T) {
	fb, m := newTestModel(t)
	fb.ChatReply = "You have 3 unread emails."

	m = typeText(m, "how many unread?")
	m, cmd := m.Update(enter())
	require.NotNil(t, cmd)

	// User message lands immediately, reply is pending.
	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, "how many unread?", msgs[1].Content)
	assert.True(t, m.Pending())
	assert.Empty(t, m.input.Value())

	m, _ = m.Update(cmd())

	msgs = m.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "You have 3 unread emails.", msgs[2].Content)
	assert.False(t, m.Pending())
}

func TestBlankSendIsNoop(t *testing.T) {
	_, m := newTestModel(t)

	m, cmd := m.Update(enter())
	assert.Nil(t, cmd)
	assert.Len(t, m.Messages(), 1)

	m = typeText(m, "   ")
	m, cmd = m.Update(enter())
	assert.Nil(t, cmd)
	assert.Len(t, m.Messages(), 1)
	assert.False(t, m.Pending())
}

func TestSendWhilePendingIsNoop(t *testing.T) {
	_, m := newTestModel(t)

	m = typeText(m, "first question")
	m, cmd := m.Update(enter())
	require.NotNil(t, cmd)
	require.True(t, m.Pending())

	m = typeText(m, "second question")
	m, blocked := m.Update(enter())

	assert.Nil(t, blocked)
	assert.Len(t, m.Messages(), 2)
	// The typed text is not lost, just not sent yet.
	assert.Equal(t, "second question", m.input.Value())
}

func TestFailedSendAppendsFallback(t *testing.T) {
	fb, m := newTestModel(t)
	fb.FailChat = true

	m = typeText(m, "hello")
	m, cmd := m.Update(enter())
	require.NotNil(t, cmd)

	m, _ = m.Update(cmd())

	msgs := m.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleAssistant, msgs[2].Role)
	assert.Equal(t, fallbackNotice, msgs[2].Content)
	// The guard is cleared, so the user can try again.
	assert.False(t, m.Pending())

	fb.FailChat = false
	fb.ChatReply = "Hi there."
	m = typeText(m, "hello again")
	m, retry := m.Update(enter())
	require.NotNil(t, retry)
	m, _ = m.Update(retry())

	msgs = m.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, "Hi there.", msgs[4].Content)
}

func TestEscBlockedWhilePending(t *testing.T) {
	_, m := newTestModel(t)

	m = typeText(m, "question")
	m, _ = m.Update(enter())
	require.True(t, m.Pending())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
}

func TestEscEmitsBack(t *testing.T) {
	_, m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	_, ok := cmd().(BackMsg)
	assert.True(t, ok)
}
