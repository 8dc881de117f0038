package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionItems_ObjectList(t *testing.T) {
	e := Email{ActionItems: `[{"task":"Send report","deadline":"Friday","priority":"High"},{"task":"Book room"}]`}

	items := e.ParseActionItems()

	require.Len(t, items, 2)
	assert.Equal(t, "Send report", items[0].Task)
	assert.Equal(t, "Friday", items[0].Deadline)
	assert.Equal(t, PriorityHigh, items[0].Priority)
	assert.Equal(t, "Book room", items[1].Task)
	assert.Empty(t, items[1].Deadline)
}

func TestParseActionItems_BareStrings(t *testing.T) {
	e := Email{ActionItems: `["Reply to sender","File expenses"]`}

	items := e.ParseActionItems()

	require.Len(t, items, 2)
	assert.Equal(t, "Reply to sender", items[0].Task)
	assert.Equal(t, "File expenses", items[1].Task)
}

func TestParseActionItems_EmptyAndMalformed(t *testing.T) {
	assert.Nil(t, Email{}.ParseActionItems())
	assert.Nil(t, Email{ActionItems: "  "}.ParseActionItems())
	assert.Nil(t, Email{ActionItems: `{"task":"not a list"}`}.ParseActionItems())
	assert.Nil(t, Email{ActionItems: `not json at all`}.ParseActionItems())
}
