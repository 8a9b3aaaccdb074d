package notesapi

import (
	"net/http"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/credentials"
)

// Services bundles every API service built on top of one gateway.
type Services struct {
	Auth       *AuthService
	Workspaces *WorkspaceService
	Notes      *NoteService
	User       *UserService
	Uploads    *UploadService
	Chat       *ChatService
}

func NewServices(api authclient.Doer, store credentials.Store, cfg config.Config) (*Services, error) {
	plainClient := &http.Client{Timeout: cfg.API.RequestTimeout()}
	auth, err := NewAuthService(
		api,
		store,
		WithSocialBaseURL(cfg.API.SocialBaseURL),
		WithSocialLoginPaths(cfg.Login.SocialLoginPaths),
		WithPlainHTTPClient(plainClient),
	)
	if err != nil {
		return &Services{}, err
	}
	uploads, err := NewUploadService(api, WithUploadsConfig(cfg.Uploads), WithStorageHTTPClient(&http.Client{}))
	if err != nil {
		return &Services{}, err
	}
	return &Services{
		Auth:       auth,
		Workspaces: NewWorkspaceService(api),
		Notes:      NewNoteService(api),
		User:       NewUserService(api),
		Uploads:    uploads,
		Chat:       NewChatService(api),
	}, nil
}
