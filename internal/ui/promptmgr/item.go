package promptmgr

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/internal/theme"
)

// promptItem wraps a model.PromptTemplate for use in a bubbles/list.
type promptItem struct {
	Prompt model.PromptTemplate
}

// FilterValue returns the string used for fuzzy filtering.
func (i promptItem) FilterValue() string { return i.Prompt.Name }

// Title returns the template name.
func (i promptItem) Title() string { return i.Prompt.Name }

// Description returns a short summary line.
func (i promptItem) Description() string { return i.Prompt.PromptType }

// itemDelegate renders prompt template rows.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single template row.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(promptItem)
	if !ok {
		return
	}

	p := it.Prompt
	isSelected := index == m.Index()

	typeBadge := lipgloss.NewStyle().
		Foreground(theme.ColorMagenta).
		Render(typeLabel(p.PromptType))

	activeBadge := ""
	if p.IsActive {
		activeBadge = lipgloss.NewStyle().
			Foreground(theme.ColorGreen).
			Render(" [active]")
	}

	line := fmt.Sprintf("%s %s%s", typeBadge, p.Name, activeBadge)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// typeLabel returns a fixed-width label for the prompt type badge.
func typeLabel(promptType string) string {
	switch promptType {
	case model.PromptTypeCategorization:
		return "CAT"
	case model.PromptTypeTaskExtraction:
		return "TSK"
	case model.PromptTypeAutoReply:
		return "RPL"
	default:
		return "???"
	}
}
