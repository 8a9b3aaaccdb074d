package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/notesphere/notes-gateway/internal/autosave"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/notesphere/notes-gateway/internal/notesapi"
	"github.com/spf13/cobra"
)

func notesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage your notes",
	}

	var workspaceID string
	createCmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Create an empty note in a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, err := a.services.Notes.Create(cmd.Context(), args[0], workspaceID)
			if err != nil {
				return err
			}
			cmd.Printf("Created the note %s (%s).\n", note.Title, note.ID)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "ID of the workspace")
	_ = createCmd.MarkFlagRequired("workspace")

	var resolve bool
	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print the blocks of a note as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := a.services.Notes.Content(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if resolve {
				blocks = notesapi.ResolveContent(cmd.Context(), a.services.Uploads, blocks)
			}
			if a.output == outputYAML {
				return printYAML(cmd.OutOrStdout(), blocks)
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(blocks)
		},
	}
	showCmd.Flags().BoolVarP(&resolve, "resolve", "r", false, "Replace the object keys of files with URLs that can be opened")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list WORKSPACE_ID",
			Short: "List the notes of a workspace",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				notes, err := a.services.Notes.List(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.render(cmd, notes, func(w io.Writer) { printNotePreviews(w, notes) })
			},
		},
		createCmd,
		&cobra.Command{
			Use:   "rename ID TITLE",
			Short: "Change the title of a note",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := a.services.Notes.Rename(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				cmd.Println("The note was renamed.")
				return nil
			},
		},
		showCmd,
		&cobra.Command{
			Use:   "save ID FILE",
			Short: "Replace the content of a note with the blocks in a json file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				blocks, err := readBlocks(args[1])
				if err != nil {
					return err
				}
				err = a.services.Notes.SaveContent(cmd.Context(), args[0], blocks)
				if err != nil {
					return err
				}
				cmd.Println("The note was saved.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "watch ID FILE",
			Short: "Save the note whenever the json file changes, until interrupted",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.watchNote(cmd, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a note",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := a.services.Notes.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cmd.Println("The note was deleted.")
				return nil
			},
		},
	)
	return cmd
}

func readBlocks(path string) ([]models.Block, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	blocks := []models.Block{}
	err = json.Unmarshal(raw, &blocks)
	if err != nil {
		return nil, fmt.Errorf("%s does not contain a list of blocks: %w", path, err)
	}
	return blocks, nil
}

// watchNote saves the note through the autosave debouncer every time the file is written.
// The directory is watched because editors often replace the file instead of writing to it.
func (a *app) watchNote(cmd *cobra.Command, noteID, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	debouncer, err := autosave.NewDebouncer(a.services.Notes, noteID, autosave.WithSavedCallback(func(noteID string, err error) {
		if err == nil {
			cmd.Println("Saved.")
		}
	}))
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	err = watcher.Add(filepath.Dir(absPath))
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s, press Ctrl+C to stop.\n", path)

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			// the interrupt may come before the debouncer fired
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.API.RefreshTimeout())
			defer cancel()
			err := debouncer.Flush(flushCtx)
			debouncer.Stop()
			return err
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != absPath || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			blocks, err := readBlocks(absPath)
			if err != nil {
				// the editor may still be writing
				slog.Debug("NOTESCTL", "message", "skipping an unreadable version", "error", err)
				continue
			}
			debouncer.Schedule(blocks)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("NOTESCTL", "message", "the file watcher reported an error", "error", err)
		}
	}
}
