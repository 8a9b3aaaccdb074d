// Package login serves the local authentication routes. The credential pair obtained from the
// notes backend is kept in the credential store of the server and never sent to the browser.
package login

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/notesphere/notes-gateway/internal/notesapi"
)

// CredentialsReader returns the pair currently stored, it is satisfied by the gateway client.
type CredentialsReader interface {
	Credentials(ctx context.Context) (models.CredentialPair, error)
}

type LoginServer struct {
	config      *config.LoginConfig
	auth        *notesapi.AuthService
	credentials CredentialsReader
}

func (l *LoginServer) RegisterHandlers(server *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	e := server.Group(l.config.EndpointsBasePath)
	e.Use(commonMiddlewares...)
	e.Use(NoCaching)

	e.POST("/login", l.PostLogin)
	e.POST("/register", l.PostRegister)
	e.POST("/logout", l.PostLogout)
	e.POST("/password-reset/request", l.PostPasswordResetRequest)
	e.POST("/password-reset/verify", l.PostPasswordResetVerify)
	e.GET("/status", l.GetStatus)
	e.GET("/:provider/login", l.GetSocialLogin)
	e.GET("/:provider/callback", l.GetSocialCallback)
}

type LoginServerOption func(*LoginServer) error

func WithConfig(loginConfig config.LoginConfig) LoginServerOption {
	return func(l *LoginServer) error {
		err := loginConfig.Validate()
		if err != nil {
			return err
		}
		l.config = &loginConfig
		return nil
	}
}

func WithAuthService(auth *notesapi.AuthService) LoginServerOption {
	return func(l *LoginServer) error {
		l.auth = auth
		return nil
	}
}

func WithCredentialsReader(credentials CredentialsReader) LoginServerOption {
	return func(l *LoginServer) error {
		l.credentials = credentials
		return nil
	}
}

// NewLoginServer creates a new LoginServer that signs the local user in and out of the notes backend.
func NewLoginServer(options ...LoginServerOption) (*LoginServer, error) {
	server := LoginServer{}
	for _, opt := range options {
		err := opt(&server)
		if err != nil {
			return &LoginServer{}, err
		}
	}
	if server.config == nil {
		return &LoginServer{}, fmt.Errorf("login server config not provided")
	}
	if server.auth == nil {
		return &LoginServer{}, fmt.Errorf("auth service not initialized")
	}
	if server.credentials == nil {
		return &LoginServer{}, fmt.Errorf("credentials reader not initialized")
	}
	return &server, nil
}
