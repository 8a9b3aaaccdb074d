package notesapi

import (
	"context"
	"net/http"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/models"
)

type UserService struct {
	api authclient.Doer
}

func NewUserService(api authclient.Doer) *UserService {
	return &UserService{api: api}
}

// Profile returns the signed in user. The backend serves it on POST.
func (u *UserService) Profile(ctx context.Context) (models.User, error) {
	var output models.User
	err := call(ctx, u.api, authclient.Request{Method: http.MethodPost, Path: "/user/profile"}, &output)
	return output, err
}

// UpdateProfile changes the username and optionally the password. A nil username clears it.
func (u *UserService) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (models.Message, error) {
	var output models.Message
	err := callJSON(ctx, u.api, http.MethodPut, "/user/profile", update, &output)
	return output, err
}

func (u *UserService) UpdateAvatar(ctx context.Context, userID int, objectKey string) error {
	return callJSON(ctx, u.api, http.MethodPost, "/user/update-avatar-user", models.AvatarUpdate{ObjectKey: objectKey, UserID: userID}, nil)
}
