package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/ai"
	"github.com/nhle/taskkeeper/internal/keys"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/ui"
	"github.com/nhle/taskkeeper/internal/ui/categorymgr"
	"github.com/nhle/taskkeeper/internal/ui/command"
	configview "github.com/nhle/taskkeeper/internal/ui/config"
	"github.com/nhle/taskkeeper/internal/ui/detail"
	helpview "github.com/nhle/taskkeeper/internal/ui/help"
	"github.com/nhle/taskkeeper/internal/ui/suggest"
	"github.com/nhle/taskkeeper/internal/ui/taskform"
	"github.com/nhle/taskkeeper/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTaskCreate
	ViewTaskEdit
	ViewCategories
	ViewSuggest
	ViewSettings
)

// Model is the root Bubble Tea model that manages view routing and
// layout on top of an App.
type Model struct {
	app          *App
	logger       *zap.Logger
	now          func() time.Time
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	taskList     tasklist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	taskForm     taskform.Model
	categoryView categorymgr.Model
	suggestView  suggest.Model
	settings     *configview.Model
	stats        statsMsg
	statusMsg    string
	ready        bool
}

// NewModel creates the root terminal UI over a. A nil suggester turns the
// suggestions panel into setup guidance.
func NewModel(a *App, s suggest.Suggester) Model {
	k := keys.DefaultKeyMap()
	history := func() string { return ai.BuildHistory(a.Tasks.All()) }
	return Model{
		app:          a,
		logger:       a.logger,
		now:          time.Now,
		currentView:  ViewList,
		keys:         k,
		taskList:     tasklist.New(a.Tasks, a.Categories, k, 80, 24),
		detail:       detail.New(k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		taskForm:     taskform.New(80, 24),
		categoryView: categorymgr.New(a.Categories, a.Tasks, a.DeleteCategory, k, 80, 24),
		suggestView:  suggest.New(s, history, 80, 24),
	}
}

// WithSettings enables the settings view, editing cfg and saving it to
// path.
func (m Model) WithSettings(path string, cfg model.AppConfig) Model {
	v := configview.New(path, cfg, m.keys, 80, 24)
	m.settings = &v
	return m
}

// Watch forwards store changes to p so every view stays current.
// The returned function removes the observers.
func Watch(a *App, p *tea.Program) func() {
	send := func() { p.Send(storeChangedMsg{}) }
	stopTasks := a.Tasks.Subscribe(func([]model.Task) { send() })
	stopCats := a.Categories.Subscribe(func([]model.Category) { send() })
	return func() {
		stopTasks()
		stopCats()
	}
}

// Init returns the initial commands to load tasks and header counts.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.taskList.Init(), m.loadStats())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.taskForm.SetSize(contentWidth, contentHeight)
		m.categoryView.SetSize(contentWidth, contentHeight)
		m.suggestView.SetSize(contentWidth, contentHeight)
		if m.settings != nil {
			m.settings.SetSize(contentWidth, contentHeight)
		}
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case storeChangedMsg:
		cmds := []tea.Cmd{m.taskList.LoadTasks(), m.loadStats()}
		if m.currentView == ViewDetail && m.detail.TaskID() != "" {
			cmds = append(cmds, m.loadDetail(m.detail.TaskID()))
		}
		return m, tea.Batch(cmds...)

	case statsMsg:
		m.stats = msg
		return m, nil

	case actionResultMsg:
		m.statusMsg = msg.status
		m.logger.Debug("ui action", zap.String("status", msg.status))
		return m, tea.Batch(m.taskList.LoadTasks(), m.loadStats())

	case tasklist.SelectedTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadDetail(msg.TaskID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		switch msg.Action {
		case detail.ActionEdit:
			return m.openEditor(msg.TaskID)
		case detail.ActionToggle:
			return m, m.toggleTask(msg.TaskID)
		case detail.ActionDelete:
			m.currentView = ViewList
			return m, m.deleteTask(msg.TaskID)
		}
		return m, nil

	case taskform.TaskCreatedMsg:
		m.currentView = ViewList
		return m, m.createTask(msg.Draft)

	case taskform.TaskUpdatedMsg:
		m.currentView = m.previousView
		cmds := []tea.Cmd{m.updateTask(msg.ID, msg.Patch)}
		if m.currentView == ViewDetail {
			cmds = append(cmds, m.loadDetail(msg.ID))
		}
		return m, tea.Batch(cmds...)

	case taskform.FormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case editReadyMsg:
		return m, m.taskForm.StartEdit(msg.task)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(msg)

	case categorymgr.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case categorymgr.ChangedMsg:
		return m, m.taskList.LoadTasks()

	case suggest.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = ViewList
		return m, nil

	case configview.ConfigSavedMsg:
		m.logger.Info("settings saved")
		return m, nil

	case suggest.ResultMsg:
		var cmd tea.Cmd
		m.suggestView, cmd = m.suggestView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.capturesText() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit) && m.currentView == ViewList:
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command):
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
			m.currentView = m.previousView
			return m, nil
		}

		if m.currentView == ViewList {
			m.statusMsg = ""
			if next, cmd, ok := m.handleListKey(msg); ok {
				return next, cmd
			}
		}
	}

	return m.updateActiveView(msg)
}

// capturesText reports whether the active view is taking free text, in
// which case global shortcuts must not fire.
func (m Model) capturesText() bool {
	switch m.currentView {
	case ViewCommand, ViewTaskCreate, ViewTaskEdit, ViewCategories, ViewSuggest, ViewSettings:
		return true
	case ViewList:
		return m.taskList.Searching()
	}
	return false
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.New):
		mdl, cmd := m.openCreator()
		return mdl, cmd, true

	case key.Matches(msg, m.keys.Edit):
		if task, ok := m.taskList.SelectedTask(); ok {
			mdl, cmd := m.openEditor(task.ID)
			return mdl, cmd, true
		}

	case key.Matches(msg, m.keys.Toggle):
		if task, ok := m.taskList.SelectedTask(); ok {
			return m, m.toggleTask(task.ID), true
		}

	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.taskList.SelectedTask(); ok {
			return m, m.deleteTask(task.ID), true
		}

	case key.Matches(msg, m.keys.Categories):
		m.previousView = m.currentView
		m.currentView = ViewCategories
		return m, m.categoryView.Init(), true

	case key.Matches(msg, m.keys.Suggest):
		m.previousView = m.currentView
		m.currentView = ViewSuggest
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) openCreator() (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewTaskCreate
	m.taskForm.SetCategories(m.app.Categories.All())
	return m, m.taskForm.StartCreate()
}

func (m Model) openEditor(id string) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewTaskEdit
	m.taskForm.SetCategories(m.app.Categories.All())
	return m, m.startEdit(id)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewCategories:
		m.categoryView, cmd = m.categoryView.Update(msg)
	case ViewSuggest:
		m.suggestView, cmd = m.suggestView.Update(msg)
	case ViewSettings:
		if m.settings != nil {
			var v configview.Model
			v, cmd = m.settings.Update(msg)
			m.settings = &v
		}
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Taskkeeper",
		ui.HeaderStatus(m.stats.open, m.stats.overdue, m.stats.reminders))
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.taskForm.View()
	case ViewCategories:
		return m.categoryView.View()
	case ViewSuggest:
		return m.suggestView.View()
	case ViewSettings:
		if m.settings != nil {
			return m.settings.View()
		}
		return ""
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | e edit | x toggle | d delete | j/k scroll"
	case ViewTaskCreate, ViewTaskEdit:
		return "enter submit | esc cancel"
	case ViewCategories:
		return "n new | e edit | d delete | esc back"
	case ViewSuggest:
		return "s suggest | n next | esc close"
	case ViewSettings:
		return "e edit | t test | esc back"
	default:
		if m.statusMsg != "" {
			return m.statusMsg
		}
		if summary := m.taskList.FilterSummary(); summary != "" {
			return summary + " | : clear filters"
		}
		return "q quit | ? help | n new | x done | / search | tab category | c categories"
	}
}

// executeCommand handles a parsed command palette line.
func (m Model) executeCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Name {
	case command.CmdQuit, "q":
		return m, tea.Quit
	case command.CmdNew:
		return m.openCreator()
	case command.CmdCategories:
		m.previousView = ViewList
		m.currentView = ViewCategories
		return m, m.categoryView.Init()
	case command.CmdSuggest:
		m.previousView = ViewList
		m.currentView = ViewSuggest
		return m, nil
	case command.CmdTemplate:
		return m, m.importTemplate(c.Arg)
	case command.CmdOverdue:
		return m, m.reportOverdue()
	case command.CmdClear:
		if c.Arg == "" || c.Arg == "filters" {
			m.statusMsg = ""
			return m, m.taskList.ClearFilters()
		}
		return m, m.clearAll(c.Arg)
	case command.CmdExport:
		return m, m.exportTo(c.Arg)
	case command.CmdSettings:
		if m.settings == nil {
			m.statusMsg = "Settings are not available"
			return m, nil
		}
		m.previousView = ViewList
		m.currentView = ViewSettings
		return m, m.settings.Init()
	default:
		m.statusMsg = fmt.Sprintf("Unknown command %q", c.Name)
		return m, nil
	}
}
