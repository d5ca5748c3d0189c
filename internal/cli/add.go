package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/ultralist/internal/db"
	"github.com/tgienger/ultralist/internal/models"
	"github.com/tgienger/ultralist/internal/parser"
)

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <text...>",
		Short:   "Quick-add a task from a sentence",
		Example: `  ultralist add "Submit report urgent tomorrow #work for finance project"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			asJSON, _ := cmd.Flags().GetBool("json")

			draft := parser.Parse(strings.Join(args, " "), a.now())
			project, err := a.projectForDraft(ctx, draft)
			if err != nil {
				return err
			}

			if dryRun {
				if asJSON {
					return printJSON(out, draft)
				}
				fmt.Fprint(out, renderDraft(draft, project))
				return nil
			}

			input := db.TaskInput{
				Title:       draft.Title,
				Description: draft.Description,
				DueDate:     optional(draft.DueDate),
				Priority:    draft.Priority,
				Tags:        draft.Tags,
			}
			if project != nil {
				input.ProjectID = &project.ID
			}

			t, err := a.store.CreateTask(ctx, input)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, t)
			}
			fmt.Fprintf(out, "Created task %s (%s)\n", t.Task.Title, shortID(t.Task.ID))
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "show the parsed task without saving it")
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "parse <text...>",
		Short:       "Print the task a sentence would produce, as JSON",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{skipStore: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := parser.Parse(strings.Join(args, " "), a.now())
			return printJSON(cmd.OutOrStdout(), draft)
		},
	}
}

// projectForDraft resolves the draft's project hint by name. A hint that
// names no project, or no hint at all, falls back to the default project.
func (a *app) projectForDraft(ctx context.Context, draft parser.Draft) (*models.Project, error) {
	if draft.ProjectName != "" {
		p, err := a.store.FindProjectByName(ctx, draft.ProjectName)
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
	}
	return a.defaultProject(ctx)
}

func renderDraft(d parser.Draft, project *models.Project) string {
	projectName := "(none)"
	switch {
	case project != nil:
		projectName = project.Name
	case d.ProjectName != "":
		projectName = d.ProjectName + " (no such project)"
	}

	fields := []string{
		renderField("Priority", renderPriority(d.Priority)),
		renderField("Project", projectName),
	}
	if d.DueDate != "" {
		fields = append(fields, renderField("Due", d.DueDate))
	}
	if d.Description != "" {
		fields = append(fields, renderField("Description", d.Description))
	}
	if len(d.Tags) > 0 {
		fields = append(fields, renderField("Tags", strings.Join(d.Tags, ", ")))
	}
	return renderEntityHeader(d.Title, fields)
}
