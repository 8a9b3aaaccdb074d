package notesapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/models"
)

// URLResolver turns an object key into a URL that can be displayed.
type URLResolver interface {
	ResolveURL(ctx context.Context, key string) (string, error)
}

type NoteService struct {
	api authclient.Doer
}

func NewNoteService(api authclient.Doer) *NoteService {
	return &NoteService{api: api}
}

func (n *NoteService) List(ctx context.Context, workspaceID string) ([]models.NotePreview, error) {
	output := []models.NotePreview{}
	err := call(ctx, n.api, authclient.Request{Method: http.MethodGet, Path: "/notes/" + url.PathEscape(workspaceID)}, &output)
	return output, err
}

func (n *NoteService) Create(ctx context.Context, title, workspaceID string) (models.Note, error) {
	var output models.Note
	err := callJSON(ctx, n.api, http.MethodPost, "/notes", models.CreateNoteBody{Title: title, WorkspaceID: workspaceID}, &output)
	return output, err
}

func (n *NoteService) Delete(ctx context.Context, id string) error {
	return call(ctx, n.api, authclient.Request{Method: http.MethodDelete, Path: "/notes/" + url.PathEscape(id)}, nil)
}

func (n *NoteService) Rename(ctx context.Context, id, title string) error {
	return callJSON(ctx, n.api, http.MethodPut, "/notes/title", models.RenameNoteBody{ID: id, Title: title}, nil)
}

// SaveContent stores the blocks of a note. File blocks are saved with their object keys
// because the presigned URLs shown in the editor expire.
func (n *NoteService) SaveContent(ctx context.Context, id string, blocks []models.Block) error {
	body := models.UpdateNoteContentBody{NoteID: id, Content: models.NormalizeFileBlocks(blocks)}
	return callJSON(ctx, n.api, http.MethodPut, "/notes/content", body, nil)
}

func (n *NoteService) Content(ctx context.Context, id string) ([]models.Block, error) {
	var output models.NoteContent
	err := call(ctx, n.api, authclient.Request{Method: http.MethodGet, Path: "/notes/" + url.PathEscape(id) + "/content"}, &output)
	if output.Content == nil {
		output.Content = []models.Block{}
	}
	return output.Content, err
}

// ResolveContent replaces the object keys of file blocks with display URLs. Blocks whose key
// cannot be resolved are kept unchanged.
func ResolveContent(ctx context.Context, resolver URLResolver, blocks []models.Block) []models.Block {
	output := make([]models.Block, 0, len(blocks))
	for _, block := range blocks {
		key, ok := block.FileURL()
		if !block.IsFileBlock() || !ok || key == "" || key != models.ExtractObjectKey(key) {
			output = append(output, block)
			continue
		}
		resolved, err := resolver.ResolveURL(ctx, key)
		if err != nil {
			slog.Warn("NOTES API", "message", "could not resolve a file block", "key", key, "error", err)
			output = append(output, block)
			continue
		}
		output = append(output, block.WithFileURL(resolved))
	}
	return output
}
