// Package cli implements the taskkeeper command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/app"
	"github.com/nhle/taskkeeper/internal/credential"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/reminder"
)

// session carries the state shared by every subcommand: flags, the
// loaded configuration and, once opened, the App.
type session struct {
	configPath string
	verbose    bool

	cfg      *model.AppConfig
	logger   *zap.Logger
	platform *reminder.LocalPlatform
	app      *app.App
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	s := &session{}

	root := &cobra.Command{
		Use:   "taskkeeper",
		Short: "Local tasks, categories and reminders",
		Long: `taskkeeper keeps tasks, categories and reminders in a local database.

Run "taskkeeper tui" for the interactive interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&s.configPath, "config", model.DefaultConfigPath(), "Path to the config file")
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(newTaskCmd(s))
	root.AddCommand(newCategoryCmd(s))
	root.AddCommand(newReminderCmd(s))
	root.AddCommand(newTemplateCmd(s))
	root.AddCommand(newSuggestCmd(s))
	root.AddCommand(newExportCmd(s))
	root.AddCommand(newClearCmd(s))
	root.AddCommand(newTUICmd(s))
	root.AddCommand(newCredentialCmd())

	return root
}

// Execute runs the root command.
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// withApp opens the App around fn and closes it afterwards.
func (s *session) withApp(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := s.open(cmd.Context(), ""); err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, args)
	}
}

// open loads the configuration and opens the database. A non-empty
// logPath sends logs to that file instead of stderr.
func (s *session) open(ctx context.Context, logPath string) error {
	_ = godotenv.Load(".env")

	cfg, err := model.LoadConfig(s.configPath)
	if err != nil {
		return err
	}
	s.cfg = cfg

	logger, err := newLogger(s.verbose, logPath)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	s.logger = logger

	deliverer, err := s.deliverer(logPath != "")
	if err != nil {
		return err
	}
	s.platform = reminder.NewLocalPlatform(deliverer, logger)

	a, err := app.Open(ctx, cfg, s.platform, app.WithLogger(logger))
	if err != nil {
		_ = s.platform.Close()
		return err
	}
	s.app = a
	return nil
}

func (s *session) close() {
	if s.platform != nil {
		if err := s.platform.Close(); err != nil {
			s.logger.Warn("failed to close reminder platform", zap.Error(err))
		}
	}
	if s.app != nil {
		if err := s.app.Close(); err != nil {
			s.logger.Warn("failed to close app", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// deliverer picks the reminder delivery configured under
// reminders.deliver. Log delivery prints to stdout unless quiet is set,
// in which case it shares the session logger.
func (s *session) deliverer(quiet bool) (reminder.Deliverer, error) {
	if s.cfg.Reminders.Deliver == model.DeliverMail {
		password, err := credential.Lookup(credential.KeySMTPPassword)
		if err != nil {
			return nil, fmt.Errorf("reading SMTP password: %w", err)
		}
		return reminder.NewMailDeliverer(s.cfg.Reminders.Mail, password), nil
	}

	if quiet {
		return reminder.LogDeliverer{Logger: s.logger}, nil
	}
	out, err := consoleLogger()
	if err != nil {
		return nil, fmt.Errorf("creating reminder logger: %w", err)
	}
	return reminder.LogDeliverer{Logger: out}, nil
}

func newLogger(verbose bool, logPath string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		cfg.OutputPaths = []string{logPath}
		cfg.ErrorOutputPaths = []string{logPath}
	}

	return cfg.Build()
}

func consoleLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	return cfg.Build()
}
