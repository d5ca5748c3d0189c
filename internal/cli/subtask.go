package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tgienger/ultralist/internal/models"
)

func newSubtaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage the checklist of a task",
		Long:  "Manage the checklist of a task. Subtasks are addressed by their 1-based position.",
	}
	cmd.AddCommand(
		newSubtaskAddCmd(a),
		newSubtaskListCmd(a),
		newSubtaskCompleteCmd(a, "done", true),
		newSubtaskCompleteCmd(a, "undone", false),
		newSubtaskDeleteCmd(a),
	)
	return cmd
}

func newSubtaskAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task-id> <text...>",
		Short: "Append a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			s := models.Subtask{
				ID:     uuid.NewString(),
				TaskID: t.Task.ID,
				Text:   strings.Join(args[1:], " "),
			}
			if err := a.store.SaveSubtask(ctx, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %d to %s\n", len(t.Subtasks)+1, t.Task.Title)
			return nil
		},
	}
}

func newSubtaskListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List the subtasks of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			subtasks, err := a.store.ListSubtasks(ctx, t.Task.ID)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(out, subtasks)
			}
			if len(subtasks) == 0 {
				fmt.Fprintln(out, "No subtasks.")
				return nil
			}
			for i, s := range subtasks {
				box := " "
				if s.Completed {
					box = "x"
				}
				fmt.Fprintf(out, "%d. [%s] %s\n", i+1, box, s.Text)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func newSubtaskCompleteCmd(a *app, use string, completed bool) *cobra.Command {
	short := "Check off a subtask"
	if !completed {
		short = "Uncheck a subtask"
	}
	return &cobra.Command{
		Use:   use + " <task-id> <n>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			s, err := subtaskAt(t, args[1])
			if err != nil {
				return err
			}
			return a.store.SetSubtaskCompleted(ctx, s.ID, completed)
		},
	}
}

func newSubtaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id> <n>",
		Short: "Remove a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			s, err := subtaskAt(t, args[1])
			if err != nil {
				return err
			}
			if err := a.store.DeleteSubtask(ctx, s.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted subtask %q\n", s.Text)
			return nil
		},
	}
}
