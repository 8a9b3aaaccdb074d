package authclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/credentials"
	"github.com/notesphere/notes-gateway/internal/metrics"
)

const (
	DefaultRefreshPath    string        = "/auth/refresh"
	DefaultRefreshTimeout time.Duration = 30 * time.Second
)

type ClientOption func(*Client) error

// SignOutHandler is called once the credentials are cleared after a refresh failed.
type SignOutHandler func(ctx context.Context, err error)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) error {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return err
		}
		c.baseURL = parsed
		return nil
	}
}

func WithCredentialStore(store credentials.Store) ClientOption {
	return func(c *Client) error {
		c.store = store
		return nil
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("the http client cannot be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

func WithRefreshPath(path string) ClientOption {
	return func(c *Client) error {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("the refresh path %q has to start with a slash", path)
		}
		c.refreshPath = path
		return nil
	}
}

func WithExpirySentinel(sentinel string) ClientOption {
	return func(c *Client) error {
		if sentinel == "" {
			return fmt.Errorf("the expiry sentinel cannot be empty")
		}
		c.sentinel = sentinel
		return nil
	}
}

func WithRefreshTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("the refresh timeout has to be positive, got %s", timeout)
		}
		c.refreshTimeout = timeout
		return nil
	}
}

func WithSignOutHandler(handler SignOutHandler) ClientOption {
	return func(c *Client) error {
		c.signOut = handler
		return nil
	}
}

func WithMetrics(m *metrics.GatewayMetrics) ClientOption {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// WithConfig applies the api section of the configuration.
func WithConfig(apiConfig config.APIConfig) ClientOption {
	return func(c *Client) error {
		err := apiConfig.Validate()
		if err != nil {
			return err
		}
		c.baseURL = apiConfig.BaseURL
		c.refreshPath = apiConfig.RefreshPath
		c.sentinel = apiConfig.ExpirySentinel
		c.refreshTimeout = apiConfig.RefreshTimeout()
		c.requestTimeout = apiConfig.RequestTimeout()
		return nil
	}
}
