package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/ui/detail"
	"github.com/nhle/taskkeeper/internal/view"
)

// DefaultExportPath is used by the export command when no path is given.
const DefaultExportPath = "taskkeeper-export.json"

// actionResultMsg reports the outcome of a mutation for the status bar.
type actionResultMsg struct {
	status string
}

// editReadyMsg carries the task to be edited.
type editReadyMsg struct {
	task model.Task
}

// statsMsg carries the counts shown in the header.
type statsMsg struct {
	open, overdue, reminders int
}

// storeChangedMsg is sent by the store observers registered in Watch.
type storeChangedMsg struct{}

func result(format string, args ...any) tea.Msg {
	return actionResultMsg{status: fmt.Sprintf(format, args...)}
}

func (m *Model) createTask(draft model.TaskDraft) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		task := a.SaveTask(context.Background(), draft)
		return result("Added %q", task.Title)
	}
}

func (m *Model) updateTask(id string, patch model.TaskPatch) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		task, ok := a.EditTask(context.Background(), id, patch)
		if !ok {
			return result("Task no longer exists")
		}
		return result("Saved %q", task.Title)
	}
}

func (m *Model) toggleTask(id string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		task, ok := a.ToggleTask(context.Background(), id)
		if !ok {
			return result("Task no longer exists")
		}
		if task.Completed {
			return result("Completed %q", task.Title)
		}
		return result("Reopened %q", task.Title)
	}
}

func (m *Model) deleteTask(id string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		if !a.DeleteTask(context.Background(), id) {
			return result("Task no longer exists")
		}
		return result("Task deleted")
	}
}

func (m *Model) startEdit(id string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		task, ok := a.Tasks.Get(id)
		if !ok {
			return result("Task no longer exists")
		}
		return editReadyMsg{task: task}
	}
}

// loadDetail gathers a task with its category and scheduled reminders.
func (m *Model) loadDetail(id string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		task, ok := a.Tasks.Get(id)
		if !ok {
			return detail.DetailLoadedMsg{Item: nil}
		}

		item := &detail.Item{
			Task:      task,
			Reminders: a.Reminders.ForTask(id),
		}
		if task.CategoryID != nil {
			if c, ok := a.Categories.Get(*task.CategoryID); ok {
				item.Category = &c
			}
		}
		return detail.DetailLoadedMsg{Item: item}
	}
}

func (m *Model) loadStats() tea.Cmd {
	a := m.app
	now := m.now
	return func() tea.Msg {
		tasks := a.Tasks.All()
		open := 0
		for _, t := range tasks {
			if !t.Completed {
				open++
			}
		}
		return statsMsg{
			open:      open,
			overdue:   len(view.Overdue(tasks, now())),
			reminders: len(a.Reminders.Active()),
		}
	}
}

func (m *Model) importTemplate(name string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		if strings.TrimSpace(name) == "" {
			return result("Usage: template <name>")
		}
		n, err := a.ImportTemplate(context.Background(), name)
		if err != nil {
			return result("Error: %v", err)
		}
		return result("Imported %d tasks", n)
	}
}

func (m *Model) reportOverdue() tea.Cmd {
	a := m.app
	now := m.now
	return func() tea.Msg {
		overdue := view.Overdue(a.Tasks.All(), now())
		if len(overdue) == 0 {
			return result("Nothing overdue")
		}
		titles := make([]string, len(overdue))
		for i, t := range overdue {
			titles[i] = t.Title
		}
		return result("%d overdue: %s", len(overdue), strings.Join(titles, ", "))
	}
}

func (m *Model) clearAll(arg string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		if arg != "confirm" {
			return result("Type 'clear confirm' to delete every task, category and reminder")
		}
		if err := a.ClearAll(context.Background()); err != nil {
			return result("Error: %v", err)
		}
		return result("All data cleared")
	}
}

func (m *Model) exportTo(path string) tea.Cmd {
	a := m.app
	if path == "" {
		path = DefaultExportPath
	}
	return func() tea.Msg {
		data, err := a.Export(context.Background())
		if err != nil {
			return result("Error: %v", err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return result("Error: writing %s: %v", path, err)
		}
		return result("Exported to %s", path)
	}
}
