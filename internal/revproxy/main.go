// Package revproxy exposes the notes backend API on the local server. Requests are forwarded
// through the gateway client, which attaches the stored credentials and handles expired tokens,
// so the browser never sees a token. The backend endpoints that issue or consume tokens are
// not exposed; the login server wraps them instead.
package revproxy

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/config"
)

const (
	defaultBodyLimit string = "32M"
	// backendAuthPath holds the backend login, register and logout endpoints.
	backendAuthPath string = "/auth"
)

type Revproxy struct {
	config         *config.RevproxyConfig
	api            authclient.Doer
	loginEntryPath string
	bodyLimit      string
	refreshPath    string
}

func (r *Revproxy) RegisterHandlers(e *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	api := e.Group(r.config.PathPrefix, append(commonMiddlewares, middleware.BodyLimit(r.bodyLimit), noCookies, noAuthorization)...)
	api.Any("", r.forward)
	api.Any("/*", r.forward)
}

type RevproxyOption func(*Revproxy)

func WithConfig(revproxyConfig config.RevproxyConfig) RevproxyOption {
	return func(r *Revproxy) {
		r.config = &revproxyConfig
	}
}

// WithGateway sets the client the requests are forwarded through.
func WithGateway(api authclient.Doer) RevproxyOption {
	return func(r *Revproxy) {
		r.api = api
	}
}

// WithLoginEntryPath sets where the browser is sent once the session has ended.
func WithLoginEntryPath(path string) RevproxyOption {
	return func(r *Revproxy) {
		r.loginEntryPath = path
	}
}

// WithRefreshPath sets the backend refresh endpoint, which is never reachable through the proxy.
func WithRefreshPath(path string) RevproxyOption {
	return func(r *Revproxy) {
		r.refreshPath = path
	}
}

func WithBodyLimit(limit string) RevproxyOption {
	return func(r *Revproxy) {
		r.bodyLimit = limit
	}
}

func NewServer(options ...RevproxyOption) (*Revproxy, error) {
	server := Revproxy{
		loginEntryPath: "/auth/login",
		bodyLimit:      defaultBodyLimit,
		refreshPath:    authclient.DefaultRefreshPath,
	}
	for _, opt := range options {
		opt(&server)
	}
	if server.config == nil {
		return &Revproxy{}, fmt.Errorf("revproxy config not provided")
	}
	err := server.config.Validate()
	if err != nil {
		return &Revproxy{}, err
	}
	if server.api == nil {
		return &Revproxy{}, fmt.Errorf("gateway client not initialized")
	}
	return &server, nil
}
