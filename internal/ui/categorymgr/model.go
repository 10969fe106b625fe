package categorymgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/keys"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/store"
	"github.com/nhle/taskkeeper/internal/theme"
	"github.com/nhle/taskkeeper/internal/view"
)

// DefaultColor is offered for new categories.
const DefaultColor = "#007AFF"

// CloseMsg signals the parent to close the category view.
type CloseMsg struct{}

// ChangedMsg signals that categories were modified.
type ChangedMsg struct{}

// DeleteFunc removes a category, optionally detaching it from its tasks.
type DeleteFunc func(ctx context.Context, id string, detach bool) bool

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name    string
	color   string
	confirm bool
	detach  bool
}

type loadedMsg struct {
	categories []model.Category
	counts     map[string]int
}

type savedMsg struct{ err error }
type deletedMsg struct{ ok bool }

// Model is the Bubble Tea model for category management.
type Model struct {
	mode        mode
	categories  *store.CategoryStore
	tasks       *store.TaskStore
	deleteFn    DeleteFunc
	keys        *keys.KeyMap
	items       []model.Category
	counts      map[string]int
	selectedIdx int
	editingID   string
	isNew       bool
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new category manager model.
func New(categories *store.CategoryStore, tasks *store.TaskStore, del DeleteFunc, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:       modeList,
		categories: categories,
		tasks:      tasks,
		deleteFn:   del,
		keys:       k,
		fb:         &formBindings{},
		width:      width, height: height,
	}
}

// Init loads categories from the store.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.items = msg.categories
		m.counts = msg.counts
		if m.selectedIdx >= len(m.items) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.items) - 1
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Category saved"
		}
		m.mode = modeList
		return m, tea.Batch(m.load(), func() tea.Msg { return ChangedMsg{} })

	case deletedMsg:
		if msg.ok {
			m.statusMsg = "Category deleted"
		} else {
			m.statusMsg = "Category no longer exists"
		}
		m.mode = modeList
		return m, tea.Batch(m.load(), func() tea.Msg { return ChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.items)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.items) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.items) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.isNew = true
		m.editingID = ""
		m.fb.name = ""
		m.fb.color = DefaultColor
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		if len(m.items) == 0 {
			return m, nil
		}
		c := m.items[m.selectedIdx]
		m.isNew = false
		m.editingID = c.ID
		m.fb.name = c.Name
		m.fb.color = c.Color
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.items) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.fb.detach = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Category name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Color").
				Placeholder(DefaultColor).
				Value(&m.fb.color),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	c := m.items[m.selectedIdx]
	n := m.counts[c.ID]

	fields := []huh.Field{
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete category %q?", c.Name)).
			Affirmative("Yes, delete").
			Negative("Cancel").
			Value(&m.fb.confirm),
	}
	if n > 0 {
		fields = append(fields,
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove it from its %d task(s)?", n)).
				Description("Otherwise the tasks keep pointing at the deleted category.").
				Affirmative("Remove").
				Negative("Keep").
				Value(&m.fb.detach),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.save()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			return m, m.delete(m.items[m.selectedIdx].ID, m.fb.detach)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the category manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Categories"))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No categories yet. Press 'n' to create one."))
	} else {
		for i, c := range m.items {
			label := fmt.Sprintf("%s %s (%d)",
				theme.CategoryStyle(c.Color).Render("●"), c.Name, m.counts[c.ID])

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.StatusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) load() tea.Cmd {
	cats, tasks := m.categories, m.tasks
	return func() tea.Msg {
		return loadedMsg{
			categories: cats.All(),
			counts:     view.CategoryCounts(tasks.All()),
		}
	}
}

func (m Model) save() tea.Cmd {
	cats := m.categories
	name := strings.TrimSpace(m.fb.name)
	color := strings.TrimSpace(m.fb.color)
	editID := m.editingID
	isNew := m.isNew
	return func() tea.Msg {
		ctx := context.Background()
		if isNew {
			_, err := cats.Add(ctx, model.CategoryDraft{Name: name, Color: color})
			return savedMsg{err: err}
		}
		_, ok := cats.Update(ctx, editID, model.CategoryPatch{
			Name:  model.Set(name),
			Color: model.Set(color),
		})
		if !ok {
			return savedMsg{err: fmt.Errorf("category %s no longer exists", editID)}
		}
		return savedMsg{}
	}
}

func (m Model) delete(id string, detach bool) tea.Cmd {
	del := m.deleteFn
	return func() tea.Msg {
		return deletedMsg{ok: del(context.Background(), id, detach)}
	}
}
