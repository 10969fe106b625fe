package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/taskkeeper/internal/app"
)

func newExportCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write every task, category and reminder as JSON",
		Long: `Write every task, category and reminder as JSON.

The default path is ` + app.DefaultExportPath + `. Use "-" for stdout.`,
		Args: cobra.MaximumNArgs(1),
	}

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		data, err := s.app.Export(cmd.Context())
		if err != nil {
			return err
		}

		path := app.DefaultExportPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "-" {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}

		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	})
	return cmd
}

func newClearCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task, category and reminder",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Bool("yes", false, "Confirm the deletion")

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to clear without --yes")
		}
		if err := s.app.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All data cleared")
		return nil
	})
	return cmd
}
