package cli

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/app"
	"github.com/nhle/taskkeeper/internal/theme"
	"github.com/nhle/taskkeeper/internal/ui/suggest"
)

func newTUICmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The alternate screen owns the terminal, so logs go to a file.
			logPath := filepath.Join(filepath.Dir(s.configPath), "taskkeeper.log")
			if err := s.open(cmd.Context(), logPath); err != nil {
				return err
			}
			defer s.close()

			if n := s.app.Reminders.Rearm(cmd.Context(), time.Now()); n > 0 {
				s.logger.Info("reminders re-armed", zap.Int("count", n))
			}

			theme.Apply(s.cfg.Display.Theme)

			var sg suggest.Suggester
			if c := s.suggester(); c != nil {
				sg = c
			}

			m := app.NewModel(s.app, sg).WithSettings(s.configPath, *s.cfg)
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			stop := app.Watch(s.app, p)
			defer stop()

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running tui: %w", err)
			}
			return nil
		},
	}
}
