package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every tag in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := a.store.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tags found.")
				return nil
			}
			for _, tag := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), "#"+tag)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <task-id> [tags...]",
		Short: "Replace the tags of a task (no tags clears them)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			tags := normalizeTags(args[1:])
			if err := a.store.ReplaceTaskTags(ctx, t.Task.ID, tags); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tags of %s: %s\n", t.Task.Title, strings.Join(tags, ", "))
			return nil
		},
	}

	cmd.AddCommand(list, set)
	return cmd
}
