package revproxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/credentials"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamRequest struct {
	Path          string `json:"path"`
	Query         string `json:"query"`
	Authorization string `json:"authorization"`
	Cookie        string `json:"cookie"`
	Body          string `json:"body"`
	RequestID     string `json:"request_id"`
	Custom        string `json:"custom"`
}

type upstream struct {
	server        *httptest.Server
	lock          sync.Mutex
	validToken    string
	refreshStatus int
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{validToken: "a1", refreshStatus: http.StatusOK}
	e := echo.New()
	e.POST("/api/v1/auth/refresh", func(c echo.Context) error {
		u.lock.Lock()
		status := u.refreshStatus
		u.validToken = "a2"
		u.lock.Unlock()
		if status != http.StatusOK {
			return c.JSON(status, models.APIError{Detail: "Invalid refresh token", StatusCode: status})
		}
		return c.JSON(http.StatusOK, models.TokenResponse{AccessToken: "a2", RefreshToken: "r2"})
	})
	e.POST("/api/v1/auth/login", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.TokenResponse{AccessToken: "leaked-access", RefreshToken: "leaked-refresh"})
	})
	e.GET("/api/v1/chatbot/chat", func(c echo.Context) error {
		resp := c.Response()
		resp.Header().Set(echo.HeaderContentType, "text/event-stream")
		resp.WriteHeader(http.StatusOK)
		for _, answer := range []string{"Hel", "Hello"} {
			fmt.Fprintf(resp, "data: {\"answer\": %q, \"done\": false}\n\n", answer)
			resp.Flush()
		}
		return nil
	})
	e.Any("/api/v1/*", func(c echo.Context) error {
		req := c.Request()
		u.lock.Lock()
		valid := u.validToken
		u.lock.Unlock()
		if req.Header.Get(echo.HeaderAuthorization) != "Bearer "+valid {
			return c.JSON(http.StatusUnauthorized, models.APIError{Detail: config.DefaultExpirySentinel, StatusCode: 401})
		}
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return err
		}
		c.Response().Header().Set("Set-Cookie", "tracking=1")
		c.Response().Header().Set("X-Upstream", "notes")
		return c.JSON(http.StatusCreated, upstreamRequest{
			Path:          req.URL.Path,
			Query:         req.URL.RawQuery,
			Authorization: req.Header.Get(echo.HeaderAuthorization),
			Cookie:        req.Header.Get(echo.HeaderCookie),
			Body:          string(body),
			RequestID:     req.Header.Get(echo.HeaderXRequestID),
			Custom:        req.Header.Get("X-Custom"),
		})
	})
	u.server = httptest.NewServer(e)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) setRefreshStatus(status int) {
	u.lock.Lock()
	defer u.lock.Unlock()
	u.refreshStatus = status
}

func newTestProxy(t *testing.T, baseURL string, options ...RevproxyOption) (*httptest.Server, credentials.Store) {
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(t.Context(), models.CredentialPair{AccessToken: "a1", RefreshToken: "r1"}))
	api, err := authclient.NewClient(authclient.WithBaseURL(baseURL+"/api/v1"), authclient.WithCredentialStore(store))
	require.NoError(t, err)
	proxy, err := NewServer(append([]RevproxyOption{
		WithConfig(config.RevproxyConfig{PathPrefix: "/api/v1"}),
		WithGateway(api),
		WithLoginEntryPath("/login"),
	}, options...)...)
	require.NoError(t, err)
	e := echo.New()
	e.Use(middleware.RequestID())
	proxy.RegisterHandlers(e)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server, store
}

func doRequest(t *testing.T, method, url string, body string, header http.Header) *http.Response {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for name, values := range header {
		req.Header[name] = values
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeUpstream(t *testing.T, resp *http.Response) upstreamRequest {
	var output upstreamRequest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&output))
	return output
}

func TestForward(t *testing.T) {
	u := newUpstream(t)
	proxy, _ := newTestProxy(t, u.server.URL)

	resp := doRequest(t, http.MethodPost, proxy.URL+"/api/v1/workspaces?sort=name", `{"name": "Work"}`, http.Header{
		"Authorization":   {"Bearer from-the-browser"},
		"Cookie":          {"session=browser"},
		"X-Custom":        {"kept"},
		"Content-Type":    {"application/json"},
		"X-Forwarded-For": {"10.0.0.1"},
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "notes", resp.Header.Get("X-Upstream"))
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
	received := decodeUpstream(t, resp)
	assert.Equal(t, "/api/v1/workspaces", received.Path)
	assert.Equal(t, "sort=name", received.Query)
	assert.Equal(t, "Bearer a1", received.Authorization)
	assert.Empty(t, received.Cookie)
	assert.Equal(t, `{"name": "Work"}`, received.Body)
	assert.Equal(t, "kept", received.Custom)
	assert.Equal(t, resp.Header.Get(echo.HeaderXRequestID), received.RequestID)
}

func TestForwardRefreshesAnExpiredToken(t *testing.T) {
	u := newUpstream(t)
	proxy, store := newTestProxy(t, u.server.URL)
	u.lock.Lock()
	u.validToken = "a2"
	u.lock.Unlock()

	resp := doRequest(t, http.MethodGet, proxy.URL+"/api/v1/notes/n1", "", nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Bearer a2", decodeUpstream(t, resp).Authorization)
	pair, err := store.Get(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "r2", pair.RefreshToken)
}

func TestForwardSignedOut(t *testing.T) {
	u := newUpstream(t)
	u.setRefreshStatus(http.StatusUnauthorized)
	proxy, store := newTestProxy(t, u.server.URL)
	u.lock.Lock()
	u.validToken = "a2"
	u.lock.Unlock()

	resp := doRequest(t, http.MethodGet, proxy.URL+"/api/v1/notes/n1", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(echo.HeaderLocation))
	var apiErr models.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.Equal(t, signedOutType, apiErr.Type)
	pair, err := store.Get(t.Context())
	require.NoError(t, err)
	assert.True(t, pair.Empty())
}

func TestForwardStreamsEvents(t *testing.T) {
	u := newUpstream(t)
	proxy, _ := newTestProxy(t, u.server.URL)

	resp := doRequest(t, http.MethodGet, proxy.URL+"/api/v1/chatbot/chat", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "data: {\"answer\": \"Hel\", \"done\": false}\n\ndata: {\"answer\": \"Hello\", \"done\": false}\n\n", string(body))
}

func TestForwardUnreachableBackend(t *testing.T) {
	u := newUpstream(t)
	proxy, _ := newTestProxy(t, u.server.URL)
	u.server.Close()

	resp := doRequest(t, http.MethodGet, proxy.URL+"/api/v1/workspaces", "", nil)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestForwardHidesTokenEndpoints(t *testing.T) {
	u := newUpstream(t)
	proxy, store := newTestProxy(t, u.server.URL)

	for _, path := range []string{
		"/api/v1/auth",
		"/api/v1/auth/login",
		"/api/v1/auth/register",
		"/api/v1/auth/logout",
		"/api/v1/auth/refresh",
		"/api/v1/auth/password-reset/request",
		"/api/v1//auth/login",
		"/api/v1/workspaces/../auth/login",
	} {
		t.Run(path, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, proxy.URL+path, `{"email": "a@b.c", "password": "secret"}`, nil)

			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.NotContains(t, string(body), "leaked")
			assert.NotContains(t, string(body), "a1")
		})
	}

	pair, err := store.Get(t.Context())
	require.NoError(t, err)
	assert.Equal(t, models.CredentialPair{AccessToken: "a1", RefreshToken: "r1"}, pair)
}

func TestForwardHidesACustomRefreshPath(t *testing.T) {
	u := newUpstream(t)
	proxy, _ := newTestProxy(t, u.server.URL, WithRefreshPath("/session/renew"))

	resp := doRequest(t, http.MethodPost, proxy.URL+"/api/v1/session/renew", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// neighbours of the reserved paths are still forwarded
	for _, path := range []string{"/api/v1/session/renewal", "/api/v1/authors"} {
		resp = doRequest(t, http.MethodGet, proxy.URL+path, "", nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, path, decodeUpstream(t, resp).Path)
	}
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(WithGateway(&authclient.Client{}))
	assert.Error(t, err)
	_, err = NewServer(WithConfig(config.RevproxyConfig{PathPrefix: "/api/v1"}))
	assert.Error(t, err)
	_, err = NewServer(WithConfig(config.RevproxyConfig{PathPrefix: "api/"}), WithGateway(&authclient.Client{}))
	assert.Error(t, err)
}

func TestRemoveHopHeaders(t *testing.T) {
	header := http.Header{
		"Connection":        {"close, X-Private"},
		"X-Private":         {"secret"},
		"Transfer-Encoding": {"chunked"},
		"Content-Type":      {"application/json"},
	}

	removeHopHeaders(header)

	assert.Equal(t, http.Header{"Content-Type": {"application/json"}}, header)
}
