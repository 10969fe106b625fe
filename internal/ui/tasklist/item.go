package tasklist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns the task description.
func (i TaskItem) Description() string { return i.Task.Description }

// ItemDelegate implements list.ItemDelegate for rendering task lines.
// It is shared by pointer with the list Model so category updates are
// visible on the next render.
type ItemDelegate struct {
	categories map[string]model.Category
	now        func() time.Time
}

func (d *ItemDelegate) setCategories(cats []model.Category) {
	d.categories = make(map[string]model.Category, len(cats))
	for _, c := range cats {
		d.categories[c.ID] = c
	}
}

// Height returns the number of lines each item takes.
func (d *ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d *ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d *ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d *ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderLine(ti.Task, index == m.Index()))
}

func (d *ItemDelegate) renderLine(task model.Task, isSelected bool) string {
	prefix := "○"
	if task.Completed {
		prefix = "✓"
	}

	priBadge := theme.PriorityStyle(task.Priority).Render(theme.PriorityLabel(task.Priority))

	categoryBadge := ""
	if task.CategoryID != nil {
		if c, ok := d.categories[*task.CategoryID]; ok {
			categoryBadge = " " + theme.CategoryStyle(c.Color).Render("#"+c.Name)
		}
	}

	dueDateStr := ""
	if task.DueDate != nil {
		dueDateStr = theme.DueDateStyle.Render(" " + task.DueDate.Local().Format("Jan 02"))
	}

	reminderStr := ""
	if task.ReminderDate != nil {
		reminderStr = lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(" ⏰")
	}

	overdueStr := ""
	if task.IsOverdue(d.clock()) {
		overdueStr = theme.OverdueStyle.Render(" OVERDUE")
	}

	line := fmt.Sprintf("%s %s %s%s%s%s%s",
		prefix, priBadge, task.Title,
		categoryBadge, dueDateStr, reminderStr, overdueStr,
	)

	if task.Completed {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (d *ItemDelegate) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}
