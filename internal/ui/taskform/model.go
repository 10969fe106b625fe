package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/theme"
)

// Input layouts accepted by the date fields.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// TaskCreatedMsg is dispatched when a new task is submitted via the form.
type TaskCreatedMsg struct {
	Draft model.TaskDraft
}

// TaskUpdatedMsg is dispatched when an existing task is edited via the form.
type TaskUpdatedMsg struct {
	ID    string
	Patch model.TaskPatch
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    model.Priority
	dueDate     string
	reminder    string
	categoryID  string
	completed   bool

	// origCategoryID is the category the edited task had when the form
	// opened. An unchanged selection leaves the task's category untouched.
	origCategoryID string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	editMode   bool
	editID     string
	categories []model.Category
	loc        *time.Location
	width      int
	height     int
}

// New creates a new task form model. Dates typed into the form are read
// in the local time zone.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium},
		loc:    time.Local,
		width:  width,
		height: height,
	}
}

// SetCategories sets the options of the category selector.
func (m *Model) SetCategories(cats []model.Category) {
	m.categories = cats
}

// StartCreate initializes the form for creating a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = ""
	*m.fb = formBindings{priority: model.PriorityMedium}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.editID = task.ID
	*m.fb = formBindings{
		title:       task.Title,
		description: task.Description,
		priority:    task.Priority,
		completed:   task.Completed,
	}
	if task.DueDate != nil {
		m.fb.dueDate = task.DueDate.In(m.loc).Format(DateLayout)
	}
	if task.ReminderDate != nil {
		m.fb.reminder = task.ReminderDate.In(m.loc).Format(DateTimeLayout)
	}
	if task.CategoryID != nil {
		m.fb.categoryID = *task.CategoryID
		m.fb.origCategoryID = *task.CategoryID
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(
				huh.NewOption("High", model.PriorityHigh),
				huh.NewOption("Medium", model.PriorityMedium),
				huh.NewOption("Low", model.PriorityLow),
			).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptional(DateLayout, "YYYY-MM-DD")),
		huh.NewInput().
			Title("Reminder").
			Placeholder("YYYY-MM-DD HH:MM (optional)").
			Value(&m.fb.reminder).
			Validate(validateOptional(DateTimeLayout, "YYYY-MM-DD HH:MM")),
		m.categoryField(),
	}
	if m.editMode {
		fields = append(fields,
			huh.NewConfirm().
				Title("Completed").
				Value(&m.fb.completed),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) categoryField() huh.Field {
	opts := []huh.Option[string]{
		huh.NewOption("None", ""),
	}
	known := false
	for _, c := range m.categories {
		opts = append(opts, huh.NewOption(c.Name, c.ID))
		known = known || c.ID == m.fb.categoryID
	}
	// A dangling id must stay selectable or huh resets the binding to None.
	if m.fb.categoryID != "" && !known {
		opts = append(opts, huh.NewOption("(deleted category)", m.fb.categoryID))
	}
	return huh.NewSelect[string]().
		Title("Category").
		Options(opts...).
		Value(&m.fb.categoryID)
}

func (m Model) handleSubmit() tea.Cmd {
	due := parseOptional(m.fb.dueDate, DateLayout, m.loc)
	remind := parseOptional(m.fb.reminder, DateTimeLayout, m.loc)
	var categoryID *string
	if m.fb.categoryID != "" {
		id := m.fb.categoryID
		categoryID = &id
	}

	if m.editMode {
		patch := model.TaskPatch{
			Title:        model.Set(strings.TrimSpace(m.fb.title)),
			Description:  model.Set(m.fb.description),
			Priority:     model.Set(m.fb.priority),
			Completed:    model.Set(m.fb.completed),
			DueDate:      model.SetOrClear(due),
			ReminderDate: model.SetOrClear(remind),
		}
		if m.fb.categoryID != m.fb.origCategoryID {
			patch.CategoryID = model.SetOrClear(categoryID)
		}
		id := m.editID
		return func() tea.Msg { return TaskUpdatedMsg{ID: id, Patch: patch} }
	}

	draft := model.TaskDraft{
		Title:        strings.TrimSpace(m.fb.title),
		Description:  m.fb.description,
		Priority:     m.fb.priority,
		DueDate:      due,
		ReminderDate: remind,
		CategoryID:   categoryID,
	}
	return func() tea.Msg { return TaskCreatedMsg{Draft: draft} }
}

// parseOptional returns nil for blank or malformed input. Validation
// rejects malformed input before submit.
func parseOptional(s, layout string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return nil
	}
	return &t
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptional(layout, hint string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if _, err := time.Parse(layout, s); err != nil {
			return fmt.Errorf("invalid date format, use %s", hint)
		}
		return nil
	}
}
