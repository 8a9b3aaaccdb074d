package notesapi

import (
	"context"
	"net/http"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/chatstream"
	"github.com/notesphere/notes-gateway/internal/models"
)

type ChatService struct {
	api authclient.Doer
}

func NewChatService(api authclient.Doer) *ChatService {
	return &ChatService{api: api}
}

// Chat sends the message and returns the answer stream. The caller has to close the stream.
func (c *ChatService) Chat(ctx context.Context, req models.ChatRequest) (*chatstream.Stream, error) {
	if req.NoteIDs == nil {
		req.NoteIDs = []string{}
	}
	if req.ChatHistory == nil {
		req.ChatHistory = []models.ChatMessage{}
	}
	httpReq, err := authclient.NewJSONRequest(http.MethodPost, "/chatbot/chat", req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	resp, err := c.api.Do(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, models.ReadAPIError(resp)
	}
	return chatstream.New(resp.Body), nil
}
