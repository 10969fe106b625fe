package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/ui/categorymgr"
	"github.com/nhle/taskkeeper/internal/view"
)

func newCategoryCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories", "cat"},
		Short:   "Manage categories",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.MinimumNArgs(1),
	}
	add.Flags().String("color", categorymgr.DefaultColor, "Display color")
	add.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		c, err := s.app.Categories.Add(cmd.Context(), model.CategoryDraft{
			Name:  strings.Join(args, " "),
			Color: color,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added category %s %q\n", shortID(c.ID), c.Name)
		return nil
	})

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories with their task counts",
		Args:    cobra.NoArgs,
	}
	list.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		cats := s.app.Categories.All()
		out := cmd.OutOrStdout()
		if len(cats) == 0 {
			fmt.Fprintln(out, "No categories yet.")
			return nil
		}

		counts := view.CategoryCounts(s.app.Tasks.All())
		rows := make([][]string, 0, len(cats))
		for _, c := range cats {
			rows = append(rows, []string{shortID(c.ID), c.Name, c.Color, fmt.Sprint(counts[c.ID])})
		}
		fmt.Fprintln(out, table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "NAME", "COLOR", "TASKS").
			Rows(rows...).
			String())
		return nil
	})

	edit := &cobra.Command{
		Use:   "edit <name|id>",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
	}
	edit.Flags().String("name", "", "New name")
	edit.Flags().String("color", "", "New color")
	edit.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		c, err := resolveCategory(s.app.Categories, args[0])
		if err != nil {
			return err
		}

		var patch model.CategoryPatch
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			patch.Name = model.Set(name)
		}
		if color, _ := cmd.Flags().GetString("color"); color != "" {
			patch.Color = model.Set(color)
		}
		if patch.Name.IsUntouched() && patch.Color.IsUntouched() {
			return errors.New("nothing to change, pass --name or --color")
		}

		updated, ok := s.app.Categories.Update(cmd.Context(), c.ID, patch)
		if !ok {
			return fmt.Errorf("category %q: %w", args[0], errNotFound)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved category %q\n", updated.Name)
		return nil
	})

	rm := &cobra.Command{
		Use:     "rm <name|id>",
		Aliases: []string{"delete"},
		Short:   "Delete a category",
		Long: `Delete a category. Its tasks keep the dangling reference unless
--detach is given, which makes them uncategorized first.`,
		Args: cobra.ExactArgs(1),
	}
	rm.Flags().Bool("detach", false, "Remove the category from its tasks")
	rm.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		c, err := resolveCategory(s.app.Categories, args[0])
		if err != nil {
			return err
		}
		detach, _ := cmd.Flags().GetBool("detach")
		if !s.app.DeleteCategory(cmd.Context(), c.ID, detach) {
			return fmt.Errorf("category %q: %w", args[0], errNotFound)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %q\n", c.Name)
		return nil
	})

	cmd.AddCommand(add, list, edit, rm)
	return cmd
}
