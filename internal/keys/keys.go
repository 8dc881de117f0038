package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Sidebar: category filters and views
	AllEmails         key.Binding
	FilterWork        key.Binding
	FilterImportant   key.Binding
	FilterPersonal    key.Binding
	FilterPromotional key.Binding
	Prompts           key.Binding
	Chat              key.Binding

	// Detail view actions
	Analyze      key.Binding
	AnalyzeDraft key.Binding

	// Prompt manager actions
	NewPrompt    key.Binding
	EditPrompt   key.Binding
	DeletePrompt key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open email"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		AllEmails: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "all emails"),
		),
		FilterWork: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "work"),
		),
		FilterImportant: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "important"),
		),
		FilterPersonal: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "personal"),
		),
		FilterPromotional: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "promotional"),
		),
		Prompts: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prompts"),
		),
		Chat: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "AI chat"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "analyze"),
		),
		AnalyzeDraft: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "analyze + draft"),
		),
		NewPrompt: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new prompt"),
		),
		EditPrompt: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit prompt"),
		),
		DeletePrompt: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete prompt"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.AllEmails, k.FilterWork, k.FilterImportant, k.FilterPersonal, k.FilterPromotional},
		{k.Prompts, k.Chat, k.Refresh, k.Help},
		{k.Analyze, k.AnalyzeDraft, k.NewPrompt, k.EditPrompt, k.DeletePrompt},
	}
}
