package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/notesphere/notes-gateway/internal/notesapi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func uploadCmd(a *app) *cobra.Command {
	var noteID string
	var contentType string
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a file for embedding in a note",
		Long:  "Upload a file to the storage of the notes backend. PDFs uploaded with --note are indexed for the chat.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			info, err := file.Stat()
			if err != nil {
				return err
			}
			if contentType == "" {
				contentType, err = detectContentType(file)
				if err != nil {
					return err
				}
			}
			name := filepath.Base(path)
			err = a.services.Uploads.Validate(name, contentType, info.Size())
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions64(
				info.Size(),
				progressbar.OptionSetDescription(fmt.Sprintf("Uploading %s", name)),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowBytes(true),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
			reader := progressbar.NewReader(file, bar)
			result, err := a.services.Uploads.UploadFile(cmd.Context(), notesapi.FileUpload{
				Name:        name,
				ContentType: contentType,
				Size:        info.Size(),
				Body:        &reader,
				NoteID:      noteID,
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}
			if a.output == outputYAML {
				return printYAML(cmd.OutOrStdout(), map[string]string{"object_key": result.ObjectKey, "url": result.URL})
			}
			cmd.Printf("Uploaded %s as %s\n%s\n", name, result.ObjectKey, result.URL)
			return nil
		},
	}
	cmd.Flags().StringVarP(&noteID, "note", "n", "", "ID of the note the file belongs to")
	cmd.Flags().StringVarP(&contentType, "content-type", "t", "", "Content type of the file, guessed when omitted")
	return cmd
}

// detectContentType looks at the extension first and falls back to sniffing the content.
func detectContentType(file *os.File) (string, error) {
	if byExtension := mime.TypeByExtension(filepath.Ext(file.Name())); byExtension != "" {
		mediaType, _, err := mime.ParseMediaType(byExtension)
		if err == nil {
			return mediaType, nil
		}
	}
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && n == 0 {
		return "", err
	}
	_, err = file.Seek(0, 0)
	if err != nil {
		return "", err
	}
	sniffed := http.DetectContentType(head[:n])
	return strings.TrimSpace(strings.Split(sniffed, ";")[0]), nil
}
