package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/ultralist/internal/config"
	"github.com/tgienger/ultralist/internal/models"
)

const defaultColor = "bg-blue-500"

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(a),
		newProjectListCmd(a),
		newProjectEditCmd(a),
		newProjectDeleteCmd(a),
		newProjectSetDefaultCmd(a),
	)
	return cmd
}

func newProjectCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			color, _ := cmd.Flags().GetString("color")
			desc, _ := cmd.Flags().GetString("description")

			p := models.Project{
				Name:        args[0],
				Color:       color,
				Description: optional(desc),
			}
			if ref, _ := cmd.Flags().GetString("folder"); ref != "" {
				f, err := a.resolveFolder(ctx, ref)
				if err != nil {
					return err
				}
				p.FolderID = &f.ID
			}

			p, err := a.store.SaveProject(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%d)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().String("color", defaultColor, "display color")
	cmd.Flags().StringP("description", "d", "", "project description")
	cmd.Flags().String("folder", "", "folder id or name")
	return cmd
}

func newProjectListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projects, err := a.store.ListProjects(ctx)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), projects)
			}
			folders, err := a.store.ListFolders(ctx)
			if err != nil {
				return err
			}
			names := make(map[int64]string, len(folders))
			for _, f := range folders {
				names[f.ID] = f.Name
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProjectTable(projects, names))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func newProjectEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id|name>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			p, err := a.resolveProject(ctx, args[0])
			if err != nil {
				return err
			}
			if flags.Changed("name") {
				p.Name, _ = flags.GetString("name")
			}
			if flags.Changed("color") {
				p.Color, _ = flags.GetString("color")
			}
			if flags.Changed("description") {
				desc, _ := flags.GetString("description")
				p.Description = optional(desc)
			}
			if flags.Changed("folder") {
				ref, _ := flags.GetString("folder")
				f, err := a.resolveFolder(ctx, ref)
				if err != nil {
					return err
				}
				p.FolderID = &f.ID
			}
			if noFolder, _ := flags.GetBool("no-folder"); noFolder {
				p.FolderID = nil
			}

			p, err = a.store.SaveProject(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s (%d)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("color", "", "new display color")
	cmd.Flags().StringP("description", "d", "", "new description (empty clears it)")
	cmd.Flags().String("folder", "", "move into this folder (id or name)")
	cmd.Flags().Bool("no-folder", false, "take the project out of its folder")
	return cmd
}

func newProjectDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a project; its tasks are kept without a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			force, _ := cmd.Flags().GetBool("force")

			p, err := a.resolveProject(ctx, args[0])
			if err != nil {
				return err
			}

			tasks, err := a.store.ListTasksWithDetails(ctx)
			if err != nil {
				return err
			}
			count := 0
			for _, t := range tasks {
				if t.Task.ProjectID != nil && *t.Task.ProjectID == p.ID {
					count++
				}
			}
			fmt.Fprintf(out, "Project: %s (%d), %d tasks\n", p.Name, p.ID, count)

			if err := confirmDelete(force, fmt.Sprintf("Delete project %q?", p.Name)); err != nil {
				return err
			}
			if err := a.store.DeleteProject(ctx, p.ID); err != nil {
				return err
			}

			if isDefaultProject(a.cfg, p) {
				a.cfg.DefaultProject = ""
				if err := config.Save(a.configDir, a.cfg); err != nil {
					return fmt.Errorf("saving config: %w", err)
				}
			}

			fmt.Fprintf(out, "Deleted project %s\n", p.Name)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "skip confirmation")
	return cmd
}

func newProjectSetDefaultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <id|name>",
		Short: "Set the project that receives tasks naming no project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolveProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.cfg.DefaultProject = p.Name
			if err := config.Save(a.configDir, a.cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default project set to %s\n", p.Name)
			return nil
		},
	}
}

func isDefaultProject(cfg *config.Config, p models.Project) bool {
	if cfg == nil || cfg.DefaultProject == "" {
		return false
	}
	return strings.EqualFold(cfg.DefaultProject, p.Name) ||
		cfg.DefaultProject == strconv.FormatInt(p.ID, 10)
}
