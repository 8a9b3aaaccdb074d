package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type cliBackend struct {
	*echo.Echo
	server *httptest.Server

	lock        sync.Mutex
	logoutCalls int
	chatBodies  []models.ChatRequest
}

func newCLIBackend(t *testing.T) *cliBackend {
	b := &cliBackend{Echo: echo.New()}
	b.POST("/api/v1/auth/login", func(c echo.Context) error {
		body := models.EmailPassword{}
		err := c.Bind(&body)
		if err != nil {
			return err
		}
		if body.Email != "ada@example.com" || body.Password != "secret" {
			return c.JSON(http.StatusUnauthorized, models.APIError{Detail: "Incorrect email or password", StatusCode: 401})
		}
		return c.JSON(http.StatusOK, models.TokenResponse{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"})
	})
	b.POST("/api/v1/auth/logout", func(c echo.Context) error {
		b.lock.Lock()
		b.logoutCalls++
		b.lock.Unlock()
		return c.JSON(http.StatusOK, models.Message{Message: "Logged out"})
	})
	b.GET("/api/v1/workspaces", func(c echo.Context) error {
		if c.Request().Header.Get(echo.HeaderAuthorization) != "Bearer a1" {
			return c.JSON(http.StatusUnauthorized, models.APIError{Detail: "Not authenticated", StatusCode: 401})
		}
		return c.JSONBlob(http.StatusOK, []byte(`[
			{"id": "1", "name": "Work", "parent_id": null, "user_id": 7},
			{"id": "2", "name": "Meetings", "parent_id": "1", "user_id": 7},
			{"id": "3", "name": "Archive", "parent_id": null, "user_id": 7}
		]`))
	})
	b.POST("/api/v1/chatbot/chat", func(c echo.Context) error {
		body := models.ChatRequest{}
		err := c.Bind(&body)
		if err != nil {
			return err
		}
		b.lock.Lock()
		b.chatBodies = append(b.chatBodies, body)
		b.lock.Unlock()
		resp := c.Response()
		resp.Header().Set(echo.HeaderContentType, "text/event-stream")
		resp.WriteHeader(http.StatusOK)
		for _, event := range []string{
			`{"answer": "Two", "done": false}`,
			`{"answer": "Two notes", "done": false}`,
			`{"answer": "Two notes", "done": true}`,
		} {
			fmt.Fprintf(resp, "data: %s\n\n", event)
			resp.Flush()
		}
		return nil
	})
	b.server = httptest.NewServer(b)
	t.Cleanup(b.server.Close)
	return b
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run(t.Context(), args, strings.NewReader(stdin), stdout, stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// setupCLI points the command line at the backend and returns the credentials file flag.
func setupCLI(t *testing.T, b *cliBackend) []string {
	t.Setenv("CONFIG_LOCATION", t.TempDir())
	t.Setenv(config.EnvPrefix+"_API_BASEURL", b.server.URL+"/api/v1")
	return []string{"--credentials-file", filepath.Join(t.TempDir(), "credentials.yaml")}
}

func TestLoginWorkspacesLogout(t *testing.T) {
	b := newCLIBackend(t)
	credentialsFlag := setupCLI(t, b)

	res := runCLI(t, "ada@example.com\nsecret\n", append([]string{"login"}, credentialsFlag...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Login was successful.")

	stored, err := os.ReadFile(credentialsFlag[1])
	require.NoError(t, err)
	assert.Contains(t, string(stored), "a1")

	res = runCLI(t, "", append([]string{"workspaces", "tree"}, credentialsFlag...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "├── Archive (3)\n└── Work (1)\n    └── Meetings (2)\n", res.stdout)

	res = runCLI(t, "", append([]string{"ws", "list", "-o", "yaml"}, credentialsFlag...)...)
	require.Equal(t, 0, res.code, res.stderr)
	listed := []models.Workspace{}
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &listed))
	assert.Len(t, listed, 3)

	res = runCLI(t, "", append([]string{"logout"}, credentialsFlag...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, 1, b.logoutCalls)

	res = runCLI(t, "", append([]string{"status", "-o", "yaml"}, credentialsFlag...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "signed_in: false\n", res.stdout)
}

func TestLoginWithWrongPassword(t *testing.T) {
	b := newCLIBackend(t)
	credentialsFlag := setupCLI(t, b)

	res := runCLI(t, "wrong\n", append([]string{"login", "--email", "ada@example.com"}, credentialsFlag...)...)

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Incorrect email or password")
	_, err := os.Stat(credentialsFlag[1])
	assert.True(t, os.IsNotExist(err))
}

func TestChatCommand(t *testing.T) {
	b := newCLIBackend(t)
	credentialsFlag := setupCLI(t, b)
	res := runCLI(t, "ada@example.com\nsecret\n", append([]string{"login"}, credentialsFlag...)...)
	require.Equal(t, 0, res.code, res.stderr)

	res = runCLI(t, "", append([]string{"chat", "How many notes?", "--note", "n1,n2"}, credentialsFlag...)...)

	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Two notes\n", res.stdout)
	require.Len(t, b.chatBodies, 1)
	assert.Equal(t, []string{"n1", "n2"}, b.chatBodies[0].NoteIDs)
}

func TestUnknownOutputFormat(t *testing.T) {
	b := newCLIBackend(t)
	credentialsFlag := setupCLI(t, b)

	res := runCLI(t, "", append([]string{"status", "-o", "xml"}, credentialsFlag...)...)

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `unknown output format "xml"`)
}

func TestReadBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.json")
	blocks := []models.Block{{"type": "paragraph", "content": "hi"}}
	raw, err := json.Marshal(blocks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	read, err := readBlocks(path)
	require.NoError(t, err)
	assert.Equal(t, "paragraph", read[0].Type())

	require.NoError(t, os.WriteFile(path, []byte(`{"type": "paragraph"}`), 0o600))
	_, err = readBlocks(path)
	assert.ErrorContains(t, err, "does not contain a list of blocks")
}
