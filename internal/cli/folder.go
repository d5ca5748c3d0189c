package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/ultralist/internal/models"
)

func newFolderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage folders of projects",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, _ := cmd.Flags().GetString("color")
			desc, _ := cmd.Flags().GetString("description")
			f, err := a.store.SaveFolder(cmd.Context(), models.Folder{
				Name:        args[0],
				Color:       color,
				Description: optional(desc),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created folder %s (%d)\n", f.Name, f.ID)
			return nil
		},
	}
	create.Flags().String("color", "bg-blue-600", "display color")
	create.Flags().StringP("description", "d", "", "folder description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			folders, err := a.store.ListFolders(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), folders)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFolderTable(folders))
			return nil
		},
	}
	list.Flags().Bool("json", false, "print JSON")

	del := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a folder; its projects are kept outside any folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			force, _ := cmd.Flags().GetBool("force")

			f, err := a.resolveFolder(ctx, args[0])
			if err != nil {
				return err
			}
			projects, err := a.store.ListProjects(ctx)
			if err != nil {
				return err
			}
			count := 0
			for _, p := range projects {
				if p.FolderID != nil && *p.FolderID == f.ID {
					count++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Folder: %s (%d), %d projects\n", f.Name, f.ID, count)

			if err := confirmDelete(force, fmt.Sprintf("Delete folder %q?", f.Name)); err != nil {
				return err
			}
			if err := a.store.DeleteFolder(ctx, f.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted folder %s\n", f.Name)
			return nil
		},
	}
	del.Flags().BoolP("force", "f", false, "skip confirmation")

	cmd.AddCommand(create, list, del)
	return cmd
}
