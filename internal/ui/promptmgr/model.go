package promptmgr

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/gateway"
	"github.com/dqtran/inboxagent/internal/keys"
	"github.com/dqtran/inboxagent/internal/model"
	"github.com/dqtran/inboxagent/internal/theme"
)

// BackMsg signals the parent to leave the prompt manager.
type BackMsg struct{}

// promptsLoadedMsg carries the outcome of a template list reload.
type promptsLoadedMsg struct {
	prompts []model.PromptTemplate
	err     error
}

// saveResultMsg carries the outcome of a create or update request.
type saveResultMsg struct {
	err error
}

// deleteResultMsg carries the outcome of a delete request.
type deleteResultMsg struct {
	err error
}

// mgrState is the prompt manager state machine.
type mgrState int

const (
	stateBrowsing mgrState = iota
	stateEditing
	stateConfirmingDelete
)

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies. Keeping
// them alive across a failed submit is what preserves the user's input.
type formBindings struct {
	name       string
	promptType string
	content    string
	isActive   bool
}

// Model is the prompt template manager: a browsing list over the
// server's templates and a create/edit form.
type Model struct {
	gw      *gateway.Gateway
	logger  *zap.Logger
	keys    *keys.KeyMap
	list    list.Model
	state   mgrState
	form    *huh.Form
	fb      *formBindings
	editing *model.PromptTemplate
	formErr error
	confirm *model.PromptTemplate
	saving  bool
	width   int
	height  int
}

// New creates a new prompt manager model.
func New(gw *gateway.Gateway, logger *zap.Logger, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Prompt Templates"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		gw:     gw,
		logger: logger,
		keys:   k,
		list:   l,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init reloads the template list and enters browsing.
func (m *Model) Init() tea.Cmd {
	m.state = stateBrowsing
	return m.reload()
}

// Editing reports whether the manager is in the editing state.
func (m Model) Editing() bool {
	return m.state == stateEditing
}

// reload fetches the full template list from the server. The list is
// always reconciled against the server, never patched locally.
func (m Model) reload() tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		prompts, err := gw.ListPrompts(context.Background())
		return promptsLoadedMsg{prompts: prompts, err: err}
	}
}

// startCreate enters editing with a blank form.
func (m *Model) startCreate() tea.Cmd {
	m.editing = nil
	m.formErr = nil
	m.fb.name = ""
	m.fb.promptType = model.PromptTypeCategorization
	m.fb.content = ""
	m.fb.isActive = true
	m.state = stateEditing
	m.form = m.buildForm()
	return m.form.Init()
}

// startEdit enters editing pre-filled from the selected template. The
// name is locked: template identity-by-name is unique and rename is
// unsupported.
func (m *Model) startEdit(p model.PromptTemplate) tea.Cmd {
	cp := p
	m.editing = &cp
	m.formErr = nil
	m.fb.name = p.Name
	m.fb.promptType = p.PromptType
	m.fb.content = p.Content
	m.fb.isActive = p.IsActive
	m.state = stateEditing
	m.form = m.buildForm()
	return m.form.Init()
}

// buildForm constructs the huh form for the current bindings. The name
// field is only editable for new templates.
func (m *Model) buildForm() *huh.Form {
	var fields []huh.Field

	if m.editing == nil {
		fields = append(fields, huh.NewInput().
			Title("Name").
			Placeholder("My categorization prompt").
			Value(&m.fb.name))
	} else {
		fields = append(fields, huh.NewNote().
			Title("Name").
			Description(m.fb.name))
	}

	fields = append(fields,
		huh.NewSelect[string]().
			Title("Type").
			Options(
				huh.NewOption("Categorization", model.PromptTypeCategorization),
				huh.NewOption("Task Extraction", model.PromptTypeTaskExtraction),
				huh.NewOption("Auto Reply", model.PromptTypeAutoReply),
			).
			Value(&m.fb.promptType),
		huh.NewText().
			Title("Content").
			Placeholder("Use {subject} and {body} as placeholders.").
			Value(&m.fb.content),
		huh.NewConfirm().
			Title("Active").
			Value(&m.fb.isActive),
	)

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

// submit sends the create or update request for the current form data.
func (m *Model) submit() tea.Cmd {
	if m.saving {
		return nil
	}
	m.saving = true

	fields := gateway.PromptFields{
		Name:       m.fb.name,
		PromptType: m.fb.promptType,
		Content:    m.fb.content,
		IsActive:   m.fb.isActive,
	}
	gw := m.gw

	if m.editing != nil {
		id := m.editing.ID
		return func() tea.Msg {
			_, err := gw.UpdatePrompt(context.Background(), id, fields)
			return saveResultMsg{err: err}
		}
	}
	return func() tea.Msg {
		_, err := gw.CreatePrompt(context.Background(), fields)
		return saveResultMsg{err: err}
	}
}

// Update handles messages for the prompt manager.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case promptsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("prompt list reload failed", zap.Error(msg.err))
			return m, nil
		}
		items := make([]list.Item, len(msg.prompts))
		for i, p := range msg.prompts {
			items[i] = promptItem{Prompt: p}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case saveResultMsg:
		m.saving = false
		if msg.err != nil {
			// Typically a duplicate name. Stay in editing with the
			// form data intact; rebuilding the form from the shared
			// bindings keeps every field the user typed.
			m.formErr = msg.err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.state = stateBrowsing
		m.editing = nil
		m.formErr = nil
		return m, m.reload()

	case deleteResultMsg:
		if msg.err != nil {
			m.logger.Warn("prompt delete failed", zap.Error(msg.err))
			return m, nil
		}
		return m, m.reload()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActive(msg)
}

// handleKeyMsg routes keyboard input by state.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.state {
	case stateBrowsing:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.NewPrompt):
			return m, m.startCreate()

		case key.Matches(msg, m.keys.EditPrompt):
			if item, ok := m.list.SelectedItem().(promptItem); ok {
				return m, m.startEdit(item.Prompt)
			}
			return m, nil

		case key.Matches(msg, m.keys.DeletePrompt):
			if item, ok := m.list.SelectedItem().(promptItem); ok {
				p := item.Prompt
				m.confirm = &p
				m.state = stateConfirmingDelete
			}
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			return m, m.reload()
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case stateConfirmingDelete:
		switch msg.String() {
		case "y", "Y":
			id := m.confirm.ID
			m.confirm = nil
			m.state = stateBrowsing
			gw := m.gw
			return m, func() tea.Msg {
				err := gw.DeletePrompt(context.Background(), id)
				return deleteResultMsg{err: err}
			}
		case "n", "N", "esc":
			m.confirm = nil
			m.state = stateBrowsing
		}
		return m, nil

	case stateEditing:
		// esc cancels: discard edits, no request.
		if msg.String() == "esc" {
			m.state = stateBrowsing
			m.editing = nil
			m.formErr = nil
			m.form = nil
			return m, nil
		}
	}

	return m.updateActive(msg)
}

// updateActive forwards messages to the form while editing.
func (m Model) updateActive(msg tea.Msg) (Model, tea.Cmd) {
	if m.state != stateEditing || m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		m.state = stateBrowsing
		m.editing = nil
		m.formErr = nil
		m.form = nil
		return m, nil
	}

	return m, cmd
}

// View renders the prompt manager.
func (m Model) View() string {
	switch m.state {
	case stateEditing:
		return m.renderForm()
	case stateConfirmingDelete:
		return m.renderConfirm()
	default:
		if len(m.list.Items()) == 0 {
			return lipgloss.NewStyle().
				Width(m.width).
				Height(m.height).
				Align(lipgloss.Center, lipgloss.Center).
				Foreground(theme.ColorGray).
				Render("No prompts configured.\nPress n to create one.")
		}
		return m.list.View()
	}
}

// renderForm renders the create/edit form with any recoverable error.
func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Prompt"
	if m.editing != nil {
		titleText = "Edit Prompt"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	if m.formErr != nil {
		errLine := lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("Save failed: " + m.formErr.Error() +
				" (is the name unique?)")
		content += "\n" + errLine
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// renderConfirm renders the delete confirmation gate.
func (m Model) renderConfirm() string {
	if m.confirm == nil {
		return ""
	}

	box := theme.ErrorNoticeStyle.
		Width(min(m.width-4, 60)).
		Render("Delete prompt \"" + m.confirm.Name + "\"?\n\ny to confirm, n to cancel")

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}

// SetSize updates the prompt manager dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w > 80 {
		w = 80
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}
