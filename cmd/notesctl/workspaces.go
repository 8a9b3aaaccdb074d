package main

import (
	"io"

	"github.com/notesphere/notes-gateway/internal/notesapi"
	"github.com/spf13/cobra"
)

func workspacesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"ws"},
		Short:   "Manage the workspaces your notes are organized in",
	}

	var parentID string
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a workspace, optionally inside another one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, err := a.services.Workspaces.Create(cmd.Context(), args[0], optional(parentID))
			if err != nil {
				return err
			}
			cmd.Printf("Created the workspace %s (%s).\n", workspace.Name, workspace.ID)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&parentID, "parent", "p", "", "ID of the parent workspace")

	var moveParentID string
	moveCmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a workspace under another one, or to the top level without --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.services.Workspaces.Move(cmd.Context(), args[0], optional(moveParentID))
			if err != nil {
				return err
			}
			cmd.Println("The workspace was moved.")
			return nil
		},
	}
	moveCmd.Flags().StringVarP(&moveParentID, "parent", "p", "", "ID of the new parent workspace")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the workspaces",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				nodes, err := a.services.Workspaces.List(cmd.Context())
				if err != nil {
					return err
				}
				workspaces := notesapi.Flatten(nodes)
				return a.render(cmd, workspaces, func(w io.Writer) { printWorkspaces(w, workspaces) })
			},
		},
		&cobra.Command{
			Use:   "tree",
			Short: "Show the workspace hierarchy",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				tree, err := a.services.Workspaces.Tree(cmd.Context())
				if err != nil {
					return err
				}
				return a.render(cmd, tree, func(w io.Writer) { printTree(w, tree, "") })
			},
		},
		createCmd,
		&cobra.Command{
			Use:   "rename ID NAME",
			Short: "Rename a workspace",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.services.Workspaces.Rename(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				cmd.Println("The workspace was renamed.")
				return nil
			},
		},
		moveCmd,
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a workspace with everything inside it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := a.services.Workspaces.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cmd.Println("The workspace was deleted.")
				return nil
			},
		},
	)
	return cmd
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
