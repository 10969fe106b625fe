package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newReminderCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminder",
		Aliases: []string{"reminders"},
		Short:   "Inspect and deliver scheduled reminders",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List scheduled reminders",
		Args:    cobra.NoArgs,
	}
	list.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		active := s.app.Reminders.Active()
		out := cmd.OutOrStdout()
		if len(active) == 0 {
			fmt.Fprintln(out, "No reminders scheduled.")
			return nil
		}

		now := time.Now()
		rows := make([][]string, 0, len(active))
		for _, r := range active {
			state := "pending"
			if !r.Date.After(now) {
				state = "due"
			}
			rows = append(rows, []string{shortID(r.TaskID), r.Title, formatWhen(&r.Date), state})
		}
		fmt.Fprintln(out, table.New().
			Border(lipgloss.NormalBorder()).
			Headers("TASK", "TITLE", "AT", "STATE").
			Rows(rows...).
			String())
		return nil
	})

	run := &cobra.Command{
		Use:   "run",
		Short: "Stay in the foreground and deliver reminders as they come due",
		Args:  cobra.NoArgs,
	}
	run.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		n := s.app.Reminders.Rearm(ctx, time.Now())
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %d reminder(s), press Ctrl+C to stop\n", n)

		<-ctx.Done()
		return nil
	})

	cmd.AddCommand(list, run)
	return cmd
}
