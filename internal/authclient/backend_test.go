package authclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/credentials"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/stretchr/testify/require"
)

type servedRequest struct {
	path      string
	auth      string
	requestID string
}

// testBackend imitates the notes backend: every data route accepts only the current valid token
// and answers anything else with the expired token error.
type testBackend struct {
	server *httptest.Server

	lock          sync.Mutex
	validToken    string
	newPair       models.CredentialPair
	refreshStatus int
	refreshGate   chan struct{}
	slowGate      chan struct{}
	refreshTokens []string
	served        []servedRequest
	refreshCalls  atomic.Int32
}

func newTestBackend(t *testing.T) *testBackend {
	b := &testBackend{
		validToken:    "a2",
		newPair:       models.CredentialPair{AccessToken: "a2", RefreshToken: "r2"},
		refreshStatus: http.StatusOK,
		slowGate:      make(chan struct{}),
	}
	e := echo.New()
	e.POST("/api/v1/auth/refresh", b.refresh)
	e.Any("/api/v1/*", b.data)
	b.server = httptest.NewServer(e)
	t.Cleanup(b.server.Close)
	return b
}

func (b *testBackend) refresh(c echo.Context) error {
	b.refreshCalls.Add(1)
	body := map[string]string{}
	err := json.NewDecoder(c.Request().Body).Decode(&body)
	if err != nil {
		return err
	}
	b.lock.Lock()
	b.refreshTokens = append(b.refreshTokens, body["refresh_token"])
	gate := b.refreshGate
	status := b.refreshStatus
	pair := b.newPair
	b.lock.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}
	if status != http.StatusOK {
		return c.JSON(status, models.APIError{Detail: config.DefaultExpirySentinel, StatusCode: status})
	}
	return c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

func (b *testBackend) data(c echo.Context) error {
	req := c.Request()
	auth := req.Header.Get(echo.HeaderAuthorization)
	path := strings.TrimPrefix(req.URL.Path, "/api/v1")
	b.lock.Lock()
	b.served = append(b.served, servedRequest{path: path, auth: auth, requestID: req.Header.Get(echo.HeaderXRequestID)})
	slowGate := b.slowGate
	b.lock.Unlock()

	switch path {
	case "/forbidden":
		return c.JSON(http.StatusUnauthorized, models.APIError{Detail: "Not authenticated", StatusCode: 401})
	case "/broken":
		return c.JSON(http.StatusInternalServerError, models.APIError{Detail: "Internal error", StatusCode: 500})
	case "/huge":
		return c.String(http.StatusUnauthorized, strings.Repeat("x", 100*1024))
	case "/slow":
		<-slowGate
	}

	b.lock.Lock()
	valid := b.validToken
	b.lock.Unlock()
	if auth != "Bearer "+valid {
		return c.JSON(http.StatusUnauthorized, models.APIError{Detail: config.DefaultExpirySentinel, StatusCode: 401})
	}
	if path == "/stuck" {
		// only requests carrying the current token hang
		select {
		case <-slowGate:
		case <-req.Context().Done():
			return req.Context().Err()
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"path": path, "token": strings.TrimPrefix(auth, "Bearer ")})
}

func (b *testBackend) setValidToken(token string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.validToken = token
}

func (b *testBackend) setRefreshStatus(status int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.refreshStatus = status
}

func (b *testBackend) setNewPair(pair models.CredentialPair) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.newPair = pair
}

func (b *testBackend) receivedRefreshTokens() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]string{}, b.refreshTokens...)
}

func (b *testBackend) gateRefresh() chan struct{} {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.refreshGate = make(chan struct{})
	return b.refreshGate
}

func (b *testBackend) servedRequests() []servedRequest {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]servedRequest{}, b.served...)
}

func (b *testBackend) replayedPaths(token string) []string {
	paths := []string{}
	for _, r := range b.servedRequests() {
		if r.auth == "Bearer "+token {
			paths = append(paths, r.path)
		}
	}
	return paths
}

func newStoreWithPair(t *testing.T, access, refresh string) *credentials.MemoryStore {
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(t.Context(), models.CredentialPair{AccessToken: access, RefreshToken: refresh}))
	return store
}

func newTestClient(t *testing.T, b *testBackend, store credentials.Store, options ...ClientOption) *Client {
	allOptions := append(
		[]ClientOption{WithBaseURL(b.server.URL + "/api/v1"), WithCredentialStore(store)},
		options...,
	)
	client, err := NewClient(allOptions...)
	require.NoError(t, err)
	return client
}

func pendingCount(c *Client) int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pending.Len()
}
