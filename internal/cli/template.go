package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/taskkeeper/internal/template"
)

func newTemplateCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Import ready-made task lists",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the builtin templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, tpl := range template.Builtin() {
				fmt.Fprintf(out, "%-12s %2d tasks  %s\n", tpl.Name, len(tpl.Tasks), tpl.Description)
			}
			return nil
		},
	}

	imp := &cobra.Command{
		Use:   "import <name>",
		Short: "Append a template's tasks",
		Args:  cobra.ExactArgs(1),
	}
	imp.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		n, err := s.app.ImportTemplate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", n)
		return nil
	})

	cmd.AddCommand(list, imp)
	return cmd
}
