package notesapi

import (
	"bytes"
	"io"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/credentials"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	query  url.Values
	body   string
	auth   string
}

type fakeBackend struct {
	*echo.Echo
	server   *httptest.Server
	lock     sync.Mutex
	requests []recordedRequest
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{Echo: echo.New()}
	b.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return err
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(raw))
			b.lock.Lock()
			b.requests = append(b.requests, recordedRequest{
				method: c.Request().Method,
				path:   c.Request().URL.Path,
				query:  c.Request().URL.Query(),
				body:   string(raw),
				auth:   c.Request().Header.Get(echo.HeaderAuthorization),
			})
			b.lock.Unlock()
			return next(c)
		}
	})
	b.server = httptest.NewServer(b.Echo)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) recorded() []recordedRequest {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]recordedRequest{}, b.requests...)
}

func (b *fakeBackend) last(t *testing.T) recordedRequest {
	requests := b.recorded()
	require.NotEmpty(t, requests)
	return requests[len(requests)-1]
}

func (b *fakeBackend) socialBaseURL(t *testing.T) *url.URL {
	parsed, err := url.Parse(b.server.URL)
	require.NoError(t, err)
	return parsed
}

func newTestGateway(t *testing.T, b *fakeBackend, pair models.CredentialPair) (*authclient.Client, credentials.Store) {
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(t.Context(), pair))
	client, err := authclient.NewClient(authclient.WithBaseURL(b.server.URL+"/api/v1"), authclient.WithCredentialStore(store))
	require.NoError(t, err)
	return client, store
}

var signedIn = models.CredentialPair{AccessToken: "a1", RefreshToken: "r1"}
