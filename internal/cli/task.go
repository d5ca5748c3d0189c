package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/ultralist/internal/db"
	"github.com/tgienger/ultralist/internal/models"
	"github.com/tgienger/ultralist/internal/query"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskCreateCmd(a),
		newTaskListCmd(a),
		newTaskShowCmd(a),
		newTaskEditCmd(a),
		newTaskCompleteCmd(a, "done", true),
		newTaskCompleteCmd(a, "undone", false),
		newTaskDeleteCmd(a),
	)
	return cmd
}

func newTaskCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <title...>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			input := db.TaskInput{Title: strings.Join(args, " ")}
			input.Description, _ = flags.GetString("description")
			input.Subtasks, _ = flags.GetStringArray("subtask")
			tags, _ := flags.GetStringSlice("tag")
			input.Tags = normalizeTags(tags)

			if due, _ := flags.GetString("due"); due != "" {
				d, err := parseDueDate(due)
				if err != nil {
					return err
				}
				input.DueDate = &d
			}
			if p, _ := flags.GetString("priority"); p != "" {
				priority, err := parsePriority(p)
				if err != nil {
					return err
				}
				input.Priority = priority
			}

			if ref, _ := flags.GetString("project"); ref != "" {
				p, err := a.resolveProject(ctx, ref)
				if err != nil {
					return err
				}
				input.ProjectID = &p.ID
			} else {
				p, err := a.defaultProject(ctx)
				if err != nil {
					return err
				}
				if p != nil {
					input.ProjectID = &p.ID
				}
			}

			t, err := a.store.CreateTask(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s (%s)\n", t.Task.Title, shortID(t.Task.ID))
			return nil
		},
	}
	cmd.Flags().StringP("description", "d", "", "task description")
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringP("priority", "p", "", "low, medium or high (default medium)")
	cmd.Flags().String("project", "", "project id or name")
	cmd.Flags().StringArray("subtask", nil, "subtask text (repeatable)")
	cmd.Flags().StringSlice("tag", nil, "tags (comma separated or repeated)")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, earliest due first",
		Long: `List tasks, earliest due first.

The query accepts free text plus these terms:
  #tag  priority:<low|medium|high>  project:<name>
  status:<completed|incomplete>  due:<today|overdue>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, _ := cmd.Flags().GetString("query")
			asJSON, _ := cmd.Flags().GetBool("json")

			tasks, err := a.store.ListTasksWithDetails(ctx)
			if err != nil {
				return err
			}
			projects, err := a.store.ListProjects(ctx)
			if err != nil {
				return err
			}

			now := a.now()
			result := query.Apply(query.Parse(q), tasks, projects, now)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTaskTable(result, projectNames(projects), now.Format(dateLayout)))
			return nil
		},
	}
	cmd.Flags().StringP("query", "q", "", "filter query")
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func newTaskShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			raw, _ := cmd.Flags().GetBool("raw")
			asJSON, _ := cmd.Flags().GetBool("json")

			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, t)
			}

			project := "(none)"
			if t.Task.ProjectID != nil {
				if p, err := a.store.GetProject(ctx, *t.Task.ProjectID); err == nil {
					project = p.Name
				}
			}
			due := "(none)"
			if t.Task.DueDate != nil {
				due = *t.Task.DueDate
			}

			fields := []string{
				renderField("ID", t.Task.ID),
				renderField("Status", renderStatus(t.Task, a.now().Format(dateLayout))),
				renderField("Priority", renderPriority(t.Task.Priority)),
				renderField("Due", due),
				renderField("Project", project),
				renderField("Created", t.Task.CreatedAt.Local().Format("2006-01-02 15:04:05")),
				renderField("Updated", t.Task.UpdatedAt.Local().Format("2006-01-02 15:04:05")),
			}
			if len(t.Tags) > 0 {
				fields = append(fields, renderField("Tags", strings.Join(t.Tags, ", ")))
			}
			fmt.Fprint(out, renderEntityHeader(t.Task.Title, fields))

			body := taskMarkdown(t)
			if body == "" {
				return nil
			}
			if raw {
				fmt.Fprint(out, "\n"+body)
				return nil
			}
			rendered, err := renderMarkdown(body)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "print the body as plain markdown")
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func newTaskEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}

			upd := db.TaskUpdate{}
			changed := false
			if flags.Changed("title") {
				title, _ := flags.GetString("title")
				upd.Title = &title
				changed = true
			}
			if flags.Changed("description") {
				desc, _ := flags.GetString("description")
				upd.Description = &desc
				changed = true
			}
			if flags.Changed("due") {
				due, _ := flags.GetString("due")
				d, err := parseDueDate(due)
				if err != nil {
					return err
				}
				upd.DueDate = &d
				changed = true
			}
			if clearDue, _ := flags.GetBool("clear-due"); clearDue {
				upd.ClearDueDate = true
				changed = true
			}
			if flags.Changed("priority") {
				p, _ := flags.GetString("priority")
				priority, err := parsePriority(p)
				if err != nil {
					return err
				}
				upd.Priority = &priority
				changed = true
			}
			if flags.Changed("project") {
				ref, _ := flags.GetString("project")
				p, err := a.resolveProject(ctx, ref)
				if err != nil {
					return err
				}
				upd.ProjectID = &p.ID
				changed = true
			}
			if clearProject, _ := flags.GetBool("clear-project"); clearProject {
				upd.ClearProject = true
				changed = true
			}
			if flags.Changed("subtask") {
				subtasks, _ := flags.GetStringArray("subtask")
				upd.Subtasks = append([]string{}, subtasks...)
				changed = true
			}
			if flags.Changed("tag") {
				tags, _ := flags.GetStringSlice("tag")
				upd.Tags = normalizeTags(tags)
				changed = true
			}
			if !changed {
				return fmt.Errorf("nothing to update")
			}

			updated, err := a.store.UpdateTask(ctx, t.Task.ID, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (%s)\n", updated.Task.Title, shortID(updated.Task.ID))
			return nil
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().Bool("clear-due", false, "remove the due date")
	cmd.Flags().StringP("priority", "p", "", "low, medium or high")
	cmd.Flags().String("project", "", "project id or name")
	cmd.Flags().Bool("clear-project", false, "remove the task from its project")
	cmd.Flags().StringArray("subtask", nil, "replace subtasks (repeatable)")
	cmd.Flags().StringSlice("tag", nil, "replace tags")
	return cmd
}

func newTaskCompleteCmd(a *app, use string, completed bool) *cobra.Command {
	short, verb := "Mark a task as completed", "Completed"
	if !completed {
		short, verb = "Mark a task as not completed", "Reopened"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.store.SetTaskCompleted(ctx, t.Task.ID, completed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task %s\n", verb, t.Task.Title)
			return nil
		},
	}
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task with its subtasks and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			force, _ := cmd.Flags().GetBool("force")

			t, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			if err := confirmDelete(force, fmt.Sprintf("Delete task %q?", t.Task.Title)); err != nil {
				return err
			}
			if err := a.store.DeleteTask(ctx, t.Task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", shortID(t.Task.ID))
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "skip confirmation")
	return cmd
}

func projectNames(projects []models.Project) map[int64]string {
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names
}
