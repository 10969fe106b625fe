package tasklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/keys"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/store"
	"github.com/nhle/taskkeeper/internal/theme"
	"github.com/nhle/taskkeeper/internal/view"
)

// TasksLoadedMsg carries the filtered and ordered home list.
type TasksLoadedMsg struct {
	Tasks      []model.Task
	Categories []model.Category
}

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID string
}

// Model is the home task list: search, category filter and the
// ordering from view.Home.
type Model struct {
	list        list.Model
	tasks       *store.TaskStore
	categories  *store.CategoryStore
	keys        *keys.KeyMap
	delegate    *ItemDelegate
	query       string
	categoryID  *string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model.
func New(tasks *store.TaskStore, categories *store.CategoryStore, k *keys.KeyMap, width, height int) Model {
	delegate := &ItemDelegate{categories: make(map[string]model.Category)}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		tasks:       tasks,
		categories:  categories,
		keys:        k,
		delegate:    delegate,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		m.delegate.setCategories(msg.Categories)
		items := make([]list.Item, len(msg.Tasks))
		for i, task := range msg.Tasks {
			items[i] = TaskItem{Task: task}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		return m, m.LoadTasks()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.LoadTasks()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: item.Task.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleCategory):
		m.categoryID = nextCategory(m.categories.All(), m.categoryID)
		return m, m.LoadTasks()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// nextCategory steps the filter through "all" and then each category in
// store order, wrapping back to "all".
func nextCategory(cats []model.Category, current *string) *string {
	if len(cats) == 0 {
		return nil
	}
	if current == nil {
		return &cats[0].ID
	}
	for i, c := range cats {
		if c.ID == *current && i+1 < len(cats) {
			return &cats[i+1].ID
		}
	}
	return nil
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" || m.categoryID != nil {
		return style.Render("No matching tasks.\nPress / or tab to adjust the filter.")
	}

	return style.Render(
		"No tasks yet.\n\n" +
			"Press n to add one, or : then 'template <name>' to import a list.",
	)
}

// LoadTasks returns a tea.Cmd that derives the home list from the stores.
func (m Model) LoadTasks() tea.Cmd {
	tasks, cats := m.tasks, m.categories
	query := m.query
	var categoryID *string
	if m.categoryID != nil {
		id := *m.categoryID
		categoryID = &id
	}
	return func() tea.Msg {
		return TasksLoadedMsg{
			Tasks:      view.Home(tasks.All(), query, categoryID),
			Categories: cats.All(),
		}
	}
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// FilterSummary describes the active search and category filter, or ""
// when none is set.
func (m Model) FilterSummary() string {
	summary := ""
	if m.query != "" {
		summary = "search: " + m.query
	}
	if m.categoryID != nil {
		name := "unknown"
		if c, ok := m.categories.Get(*m.categoryID); ok {
			name = c.Name
		}
		if summary != "" {
			summary += " | "
		}
		summary += "category: " + name
	}
	return summary
}

// ClearFilters drops the search query and the category filter.
func (m *Model) ClearFilters() tea.Cmd {
	m.query = ""
	m.categoryID = nil
	m.searchInput.Reset()
	return m.LoadTasks()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
