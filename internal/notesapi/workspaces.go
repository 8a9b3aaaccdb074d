package notesapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/models"
)

type WorkspaceService struct {
	api authclient.Doer
}

func NewWorkspaceService(api authclient.Doer) *WorkspaceService {
	return &WorkspaceService{api: api}
}

// List returns the workspaces as sent by the backend, which may already nest them.
func (w *WorkspaceService) List(ctx context.Context) ([]*models.WorkspaceNode, error) {
	output := []*models.WorkspaceNode{}
	err := call(ctx, w.api, authclient.Request{Method: http.MethodGet, Path: "/workspaces"}, &output)
	return output, err
}

// Tree returns the workspace hierarchy.
func (w *WorkspaceService) Tree(ctx context.Context) ([]*models.WorkspaceNode, error) {
	nodes, err := w.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(Flatten(nodes)), nil
}

func (w *WorkspaceService) Create(ctx context.Context, name string, parentID *string) (models.Workspace, error) {
	var output models.Workspace
	err := callJSON(ctx, w.api, http.MethodPost, "/workspaces", models.CreateWorkspaceBody{Name: name, ParentID: parentID}, &output)
	return output, err
}

// Delete removes the workspace together with everything below it.
func (w *WorkspaceService) Delete(ctx context.Context, id string) error {
	return call(ctx, w.api, authclient.Request{Method: http.MethodDelete, Path: "/workspaces/" + url.PathEscape(id)}, nil)
}

func (w *WorkspaceService) Rename(ctx context.Context, id, name string) (models.Workspace, error) {
	var output models.Workspace
	err := callJSON(ctx, w.api, http.MethodPut, "/workspaces/name", models.RenameWorkspaceBody{ID: id, Name: name}, &output)
	return output, err
}

// Move changes the parent of a workspace. A nil parent moves it to the top level.
func (w *WorkspaceService) Move(ctx context.Context, id string, parentID *string) (models.Workspace, error) {
	var output models.Workspace
	err := callJSON(ctx, w.api, http.MethodPut, "/workspaces/parent", models.MoveWorkspaceBody{ID: id, ParentID: parentID}, &output)
	return output, err
}
