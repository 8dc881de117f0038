package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/internal/theme"
)

// Item wraps a model.Email so it can be used in a bubbles/list.
type Item struct {
	Email model.Email
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Email.Subject }

// Title returns the email subject for the list.
func (i Item) Title() string { return i.Email.Subject }

// Description returns a short summary line for the list.
func (i Item) Description() string {
	return i.Email.SenderName + " | " + relativeTime(i.Email.ReceivedAt)
}

// Delegate implements list.ItemDelegate for rendering inbox rows.
type Delegate struct{}

// Height returns the number of lines each item takes.
func (d Delegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d Delegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single inbox row.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}

	email := it.Email
	isSelected := index == m.Index()

	// Unread marker
	var prefix string
	if email.IsRead {
		prefix = "○"
	} else {
		prefix = "●"
	}

	catBadge := theme.CategoryStyle(email.Category).Render(categoryLabel(email.Category))
	priBadge := theme.PriorityStyle(email.Priority).Render(priorityLabel(email.Priority))

	actionMarker := ""
	if email.HasActionItems {
		actionMarker = lipgloss.NewStyle().
			Foreground(theme.ColorOrange).
			Render(" [tasks]")
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(email.ReceivedAt))

	line := fmt.Sprintf(
		"%s %s %s %s - %s%s  %s",
		prefix, catBadge, priBadge, email.SenderName, email.Subject,
		actionMarker, timeStr,
	)

	if email.IsRead {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// categoryLabel returns a short fixed-width label for the category badge.
func categoryLabel(category string) string {
	switch category {
	case model.CategoryWork:
		return "WRK"
	case model.CategoryImportant:
		return "IMP"
	case model.CategoryPersonal:
		return "PER"
	case model.CategoryPromotional:
		return "PRO"
	default:
		return "---"
	}
}

// priorityLabel returns a short label for the priority badge.
func priorityLabel(priority string) string {
	switch priority {
	case model.PriorityHigh:
		return "HI"
	case model.PriorityMedium:
		return "MD"
	case model.PriorityLow:
		return "LO"
	default:
		return "--"
	}
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
