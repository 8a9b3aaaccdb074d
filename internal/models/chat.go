package models

type ChatRole string

const (
	UserRole      ChatRole = "user"
	AssistantRole ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type ChatRequest struct {
	Message     string        `json:"message"`
	NoteIDs     []string      `json:"note_ids"`
	ChatHistory []ChatMessage `json:"chat_history"`
}

// ChatEvent is the JSON payload carried by one event of the chat stream
type ChatEvent struct {
	Answer    string `json:"answer"`
	Done      bool   `json:"done"`
	ErrorType string `json:"error_type,omitempty"`
}
