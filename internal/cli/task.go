package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/theme"
	"github.com/nhle/taskkeeper/internal/view"
)

func newTaskCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Manage tasks",
	}

	cmd.AddCommand(newTaskAddCmd(s))
	cmd.AddCommand(newTaskListCmd(s))
	cmd.AddCommand(newTaskShowCmd(s))
	cmd.AddCommand(newTaskEditCmd(s))
	cmd.AddCommand(newTaskDoneCmd(s))
	cmd.AddCommand(newTaskRemoveCmd(s))
	cmd.AddCommand(newTaskICSCmd(s))
	return cmd
}

func newTaskAddCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().String("desc", "", "Description")
	cmd.Flags().String("priority", string(model.PriorityMedium), "Priority: low, medium or high")
	cmd.Flags().String("due", "", "Due date (2006-01-02 or 2006-01-02 15:04)")
	cmd.Flags().String("remind", "", "Reminder date (2006-01-02 15:04)")
	cmd.Flags().String("category", "", "Category name or id")

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return errors.New("title is required")
		}

		desc, _ := cmd.Flags().GetString("desc")
		draft := model.TaskDraft{Title: title, Description: desc}

		p, _ := cmd.Flags().GetString("priority")
		priority, err := model.ParsePriority(p)
		if err != nil {
			return err
		}
		draft.Priority = priority

		if draft.DueDate, err = optionalWhen(cmd, "due"); err != nil {
			return err
		}
		if draft.ReminderDate, err = optionalWhen(cmd, "remind"); err != nil {
			return err
		}

		if ref, _ := cmd.Flags().GetString("category"); ref != "" {
			c, err := resolveCategory(s.app.Categories, ref)
			if err != nil {
				return err
			}
			draft.CategoryID = &c.ID
		}

		task := s.app.SaveTask(cmd.Context(), draft)
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q\n", shortID(task.ID), task.Title)
		return nil
	})
	return cmd
}

func newTaskListCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, open and dated first",
		Args:    cobra.NoArgs,
	}
	cmd.Flags().String("search", "", "Match title or description")
	cmd.Flags().String("category", "", "Only tasks in this category")
	cmd.Flags().String("priority", "", "Only tasks with this priority")
	cmd.Flags().String("status", view.StatusAll, "all, completed or pending")
	cmd.Flags().String("day", "", "Only tasks due on this day (2006-01-02)")
	cmd.Flags().Bool("overdue", false, "Only overdue tasks")

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")

		var categoryID *string
		if ref, _ := cmd.Flags().GetString("category"); ref != "" {
			c, err := resolveCategory(s.app.Categories, ref)
			if err != nil {
				return err
			}
			categoryID = &c.ID
		}

		tasks := view.Home(s.app.Tasks.All(), search, categoryID)

		priority, _ := cmd.Flags().GetString("priority")
		status, _ := cmd.Flags().GetString("status")
		tasks = view.Table(tasks, view.TableFilter{Priority: priority, Status: status})

		if day, _ := cmd.Flags().GetString("day"); day != "" {
			d, err := time.ParseInLocation(dateLayout, day, time.Local)
			if err != nil {
				return fmt.Errorf("invalid day %q, use %s", day, dateLayout)
			}
			tasks = view.OnDay(tasks, d)
		}
		if overdue, _ := cmd.Flags().GetBool("overdue"); overdue {
			tasks = view.Overdue(tasks, time.Now())
		}

		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}
		fmt.Fprintln(out, renderTaskTable(tasks, s.app.Categories.All(), time.Now()))
		return nil
	})
	return cmd
}

func renderTaskTable(tasks []model.Task, cats []model.Category, now time.Time) string {
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		status := "open"
		switch {
		case t.Completed:
			status = "done"
		case t.IsOverdue(now):
			status = "overdue"
		}

		category := "-"
		if t.CategoryID != nil {
			category = names[*t.CategoryID]
			if category == "" {
				category = "(deleted)"
			}
		}

		rows = append(rows, []string{
			shortID(t.ID),
			status,
			theme.PriorityLabel(t.Priority),
			t.Title,
			category,
			formatWhen(t.DueDate),
			formatWhen(t.ReminderDate),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "PRI", "TITLE", "CATEGORY", "DUE", "REMINDER").
		Rows(rows...).
		String()
}

func newTaskShowCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its scheduled reminders",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(s.app.Tasks, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		row := func(label, value string) {
			fmt.Fprintf(out, "%-10s %s\n", label+":", value)
		}

		row("ID", task.ID)
		row("Title", task.Title)
		if task.Description != "" {
			row("Notes", task.Description)
		}
		row("Priority", string(task.Priority))
		row("Completed", fmt.Sprintf("%t", task.Completed))
		row("Due", formatWhen(task.DueDate))
		row("Reminder", formatWhen(task.ReminderDate))
		if task.CategoryID != nil {
			name := "(deleted category)"
			if c, ok := s.app.Categories.Get(*task.CategoryID); ok {
				name = c.Name
			}
			row("Category", name)
		}
		row("Created", formatWhen(&task.CreatedAt))
		row("Updated", formatWhen(&task.UpdatedAt))

		for _, r := range s.app.Reminders.ForTask(task.ID) {
			row("Scheduled", formatWhen(&r.Date))
		}
		return nil
	})
	return cmd
}

func newTaskEditCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("desc", "", "New description")
	cmd.Flags().String("priority", "", "New priority")
	cmd.Flags().String("due", "", "New due date")
	cmd.Flags().String("remind", "", "New reminder date")
	cmd.Flags().String("category", "", "New category name or id")
	cmd.Flags().Bool("done", false, "Mark completed (--done=false reopens)")
	cmd.Flags().Bool("clear-due", false, "Remove the due date")
	cmd.Flags().Bool("clear-remind", false, "Remove the reminder")
	cmd.Flags().Bool("clear-category", false, "Remove the category")

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(s.app.Tasks, args[0])
		if err != nil {
			return err
		}

		patch, err := taskPatchFromFlags(cmd, s)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return errors.New("nothing to change, pass at least one flag")
		}

		updated, ok := s.app.EditTask(cmd.Context(), task.ID, patch)
		if !ok {
			return fmt.Errorf("task %q: %w", args[0], errNotFound)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %q\n", shortID(updated.ID), updated.Title)
		return nil
	})
	return cmd
}

func taskPatchFromFlags(cmd *cobra.Command, s *session) (model.TaskPatch, error) {
	var patch model.TaskPatch
	flags := cmd.Flags()

	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		if strings.TrimSpace(title) == "" {
			return patch, errors.New("title cannot be empty")
		}
		patch.Title = model.Set(strings.TrimSpace(title))
	}
	if flags.Changed("desc") {
		desc, _ := flags.GetString("desc")
		patch.Description = model.Set(desc)
	}
	if flags.Changed("priority") {
		p, _ := flags.GetString("priority")
		priority, err := model.ParsePriority(p)
		if err != nil {
			return patch, err
		}
		patch.Priority = model.Set(priority)
	}
	if flags.Changed("done") {
		done, _ := flags.GetBool("done")
		patch.Completed = model.Set(done)
	}

	due, err := optionalWhen(cmd, "due")
	if err != nil {
		return patch, err
	}
	if due != nil {
		patch.DueDate = model.Set(*due)
	} else if unset, _ := flags.GetBool("clear-due"); unset {
		patch.DueDate = model.Clear[time.Time]()
	}

	remind, err := optionalWhen(cmd, "remind")
	if err != nil {
		return patch, err
	}
	if remind != nil {
		patch.ReminderDate = model.Set(*remind)
	} else if unset, _ := flags.GetBool("clear-remind"); unset {
		patch.ReminderDate = model.Clear[time.Time]()
	}

	if ref, _ := flags.GetString("category"); ref != "" {
		c, err := resolveCategory(s.app.Categories, ref)
		if err != nil {
			return patch, err
		}
		patch.CategoryID = model.Set(c.ID)
	} else if unset, _ := flags.GetBool("clear-category"); unset {
		patch.CategoryID = model.Clear[string]()
	}

	return patch, nil
}

// optionalWhen parses a date flag, returning nil when it is empty.
func optionalWhen(cmd *cobra.Command, name string) (*time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t, err := parseWhen(v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func newTaskDoneCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "done <id>",
		Aliases: []string{"toggle"},
		Short:   "Toggle a task's completion",
		Args:    cobra.ExactArgs(1),
	}

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(s.app.Tasks, args[0])
		if err != nil {
			return err
		}

		toggled, ok := s.app.ToggleTask(cmd.Context(), task.ID)
		if !ok {
			return fmt.Errorf("task %q: %w", args[0], errNotFound)
		}
		if toggled.Completed {
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %q\n", toggled.Title)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Reopened %q\n", toggled.Title)
		}
		return nil
	})
	return cmd
}

func newTaskRemoveCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task and cancel its reminders",
		Args:    cobra.ExactArgs(1),
	}

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(s.app.Tasks, args[0])
		if err != nil {
			return err
		}
		if !s.app.DeleteTask(cmd.Context(), task.ID) {
			return fmt.Errorf("task %q: %w", args[0], errNotFound)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", task.Title)
		return nil
	})
	return cmd
}

func newTaskICSCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ics <id>",
		Short: "Export a task as an iCalendar event",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(s.app.Tasks, args[0])
		if err != nil {
			return err
		}

		ics, err := view.TaskICS(task, time.Now(), time.Local)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			fmt.Fprint(cmd.OutOrStdout(), ics)
			return nil
		}
		if err := os.WriteFile(path, []byte(ics), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	})
	return cmd
}
