// Package chatstream reads the server-sent events of the chatbot endpoint as a sequence of chunks.
package chatstream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"github.com/notesphere/notes-gateway/internal/models"
)

// HistoryTooLong is the error type sent when the chat history exceeds what the model accepts
const HistoryTooLong string = "HISTORY_TOO_LONG"

const maxEventSize = 4 * 1024 * 1024

type Kind int

const (
	// Text carries a partial answer
	Text Kind = iota
	// End carries the final answer
	End
	// Error ends the stream, either reported by the backend or caused by the transport
	Error
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case End:
		return "end"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type Chunk struct {
	Kind Kind
	// Answer is the whole answer received so far
	Answer string
	// Delta is the part of the answer added by this chunk
	Delta     string
	ErrorType string
	Err       error
}

// BackendError is an error the chatbot reported inside the stream.
type BackendError struct {
	Type    string
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("the chatbot reported %s: %s", e.Type, e.Message)
}

// Stream is a single pass iterator over a chat response body.
//
//	for stream.Next() {
//		chunk := stream.Chunk()
//	}
//	err := stream.Err()
type Stream struct {
	body     io.ReadCloser
	scanner  *bufio.Scanner
	chunk    Chunk
	answer   string
	err      error
	finished bool
	closed   bool
}

func New(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	scanner.Split(splitEvents)
	return &Stream{body: body, scanner: scanner}
}

// Next advances to the next chunk. It returns false once an End or Error chunk was returned,
// or when the stream was closed.
func (s *Stream) Next() bool {
	if s.finished {
		return false
	}
	if s.closed {
		s.finished = true
		s.err = gwerrors.ErrStreamClosed
		return false
	}
	for s.scanner.Scan() {
		data, ok := eventData(s.scanner.Text())
		if !ok {
			continue
		}
		var event models.ChatEvent
		err := json.Unmarshal([]byte(data), &event)
		if err != nil {
			slog.Warn("CHAT STREAM", "message", "skipping a malformed event", "error", err)
			continue
		}
		s.chunk = s.toChunk(event)
		if s.chunk.Kind != Text {
			s.finished = true
		}
		return true
	}
	s.finished = true
	err := s.scanner.Err()
	if err == nil {
		err = fmt.Errorf("the chat stream ended before the answer was complete: %w", io.ErrUnexpectedEOF)
	}
	if s.closed {
		err = gwerrors.ErrStreamClosed
	}
	s.err = err
	s.chunk = Chunk{Kind: Error, Answer: s.answer, Err: err}
	return true
}

func (s *Stream) Chunk() Chunk {
	return s.chunk
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Answer returns the answer accumulated so far.
func (s *Stream) Answer() string {
	return s.answer
}

func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

func (s *Stream) toChunk(event models.ChatEvent) Chunk {
	if event.ErrorType != "" {
		err := &BackendError{Type: event.ErrorType, Message: event.Answer}
		s.err = err
		return Chunk{Kind: Error, Answer: event.Answer, ErrorType: event.ErrorType, Err: err}
	}
	delta := event.Answer
	if strings.HasPrefix(event.Answer, s.answer) {
		delta = event.Answer[len(s.answer):]
	}
	s.answer = event.Answer
	if event.Done {
		return Chunk{Kind: End, Answer: event.Answer, Delta: delta}
	}
	return Chunk{Kind: Text, Answer: event.Answer, Delta: delta}
}

// eventData joins the data lines of one event.
func eventData(event string) (string, bool) {
	lines := []string{}
	for _, line := range strings.Split(event, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		lines = append(lines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// splitEvents is a bufio.SplitFunc that splits on the blank line ending every event.
func splitEvents(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	lf := bytes.Index(data, []byte("\n\n"))
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	if crlf >= 0 && (lf < 0 || crlf < lf) {
		return crlf + 4, data[:crlf], nil
	}
	if lf >= 0 {
		return lf + 2, data[:lf], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
