package notesapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/notesphere/notes-gateway/internal/chatstream"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	b := newFakeBackend(t)
	b.POST("/api/v1/chatbot/chat", func(c echo.Context) error {
		resp := c.Response()
		resp.Header().Set(echo.HeaderContentType, "text/event-stream")
		resp.WriteHeader(http.StatusOK)
		for _, event := range []string{
			`{"answer": "Hel", "done": false}`,
			`{"answer": "Hello", "done": false}`,
			`{"answer": "Hello", "done": true}`,
		} {
			fmt.Fprintf(resp, "data: %s\n\n", event)
			resp.Flush()
		}
		return nil
	})
	api, _ := newTestGateway(t, b, signedIn)

	stream, err := NewChatService(api).Chat(context.Background(), models.ChatRequest{Message: "Hi"})
	require.NoError(t, err)
	defer stream.Close()

	deltas := ""
	for stream.Next() {
		chunk := stream.Chunk()
		if chunk.Kind == chatstream.Text {
			deltas += chunk.Delta
		}
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, "Hello", deltas)
	assert.Equal(t, "Hello", stream.Answer())
	assert.JSONEq(t, `{"message": "Hi", "note_ids": [], "chat_history": []}`, b.last(t).body)
}

func TestChatBackendError(t *testing.T) {
	b := newFakeBackend(t)
	b.POST("/api/v1/chatbot/chat", func(c echo.Context) error {
		return c.JSON(http.StatusUnprocessableEntity, models.APIError{Detail: "message is required", StatusCode: 422})
	})
	api, _ := newTestGateway(t, b, signedIn)

	stream, err := NewChatService(api).Chat(context.Background(), models.ChatRequest{})

	assert.Nil(t, stream)
	var apiErr *models.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.HTTPStatus)
}
