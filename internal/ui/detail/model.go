package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/keys"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/theme"
)

// Actions the detail view can request on the current task.
const (
	ActionEdit   = "edit"
	ActionToggle = "toggle"
	ActionDelete = "delete"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Item is everything the detail view shows for one task.
type Item struct {
	Task      model.Task
	Category  *model.Category
	Reminders []model.Reminder
}

// DetailLoadedMsg carries the loaded item, or nil when the task is gone.
type DetailLoadedMsg struct {
	Item *Item
}

// ActionMsg signals the parent to execute an action on the current task.
type ActionMsg struct {
	Action string
	TaskID string
}

// Model is the task detail view component.
type Model struct {
	item     *Item
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.SetItem(msg.Item)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}
		case key.Matches(msg, m.keys.Edit):
			return m, m.action(ActionEdit)
		case key.Matches(msg, m.keys.Toggle):
			return m, m.action(ActionToggle)
		case key.Matches(msg, m.keys.Delete):
			return m, m.action(ActionDelete)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.item == nil {
		return nil
	}
	id := m.item.Task.ID
	return func() tea.Msg {
		return ActionMsg{Action: name, TaskID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return placeholder.Render("Loading task details...")
	}
	if m.item == nil {
		return placeholder.Render("No task selected")
	}

	return m.viewport.View()
}

func (m Model) renderContent() string {
	if m.item == nil {
		return ""
	}

	task := m.item.Task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	status := "Pending"
	if task.Completed {
		status = "Completed"
	}
	badges := []string{
		theme.StatusStyle.Render(status),
		theme.PriorityStyle(task.Priority).Render(theme.PriorityLabel(task.Priority)),
	}
	if c := m.item.Category; c != nil {
		badges = append(badges, theme.CategoryStyle(c.Color).Render("#"+c.Name))
	} else if task.CategoryID != nil {
		badges = append(badges, theme.DueDateStyle.Render("#(deleted category)"))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return theme.LabelStyle.Render(label+":") + valStyle.Render(value)
	}

	sections = append(sections,
		row("Due", formatOptional(task.DueDate, "2006-01-02")),
		row("Reminder", formatOptional(task.ReminderDate, "2006-01-02 15:04")),
		row("Created", task.CreatedAt.Local().Format("2006-01-02 15:04")),
		row("Updated", task.UpdatedAt.Local().Format("2006-01-02 15:04")),
	)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	sections = append(sections, "", separator, "", headerStyle.Render("Description"))
	body := task.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body)

	if len(m.item.Reminders) > 0 {
		sections = append(sections, "", separator, "",
			headerStyle.Render(fmt.Sprintf("Scheduled reminders (%d)", len(m.item.Reminders))))
		for _, r := range m.item.Reminders {
			sections = append(sections, fmt.Sprintf("%s  %s",
				theme.DueDateStyle.Render(r.Date.Local().Format("2006-01-02 15:04")),
				r.Title))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func formatOptional(t *time.Time, layout string) string {
	if t == nil {
		return "none"
	}
	return t.Local().Format(layout)
}

// SetItem updates the task being displayed and re-renders the content.
func (m *Model) SetItem(item *Item) {
	m.item = item
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// TaskID returns the id of the displayed task, or "".
func (m Model) TaskID() string {
	if m.item == nil {
		return ""
	}
	return m.item.Task.ID
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
