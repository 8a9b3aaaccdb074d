package main

import (
	"github.com/notesphere/notes-gateway/internal/chatstream"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/spf13/cobra"
)

func chatCmd(a *app) *cobra.Command {
	var noteIDs []string
	cmd := &cobra.Command{
		Use:   "chat MESSAGE",
		Short: "Ask the assistant about your notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stream, err := a.services.Chat.Chat(cmd.Context(), models.ChatRequest{
				Message: args[0],
				NoteIDs: noteIDs,
			})
			if err != nil {
				return err
			}
			defer stream.Close()
			for stream.Next() {
				chunk := stream.Chunk()
				switch chunk.Kind {
				case chatstream.Text, chatstream.End:
					cmd.Print(chunk.Delta)
				case chatstream.Error:
					cmd.Println()
					if chunk.ErrorType == chatstream.HistoryTooLong {
						cmd.PrintErrln("The conversation is too long, start a new one.")
					}
					return chunk.Err
				}
			}
			cmd.Println()
			return stream.Err()
		},
	}
	cmd.Flags().StringSliceVarP(&noteIDs, "note", "n", nil, "IDs of the notes to ask about")
	return cmd
}
