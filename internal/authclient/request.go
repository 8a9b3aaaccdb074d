package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/notesphere/notes-gateway/internal/utils"
)

const requestIDHeader string = "X-Request-ID"

// Doer is what the API services need from the gateway.
type Doer interface {
	Do(ctx context.Context, req Request) (*http.Response, error)
}

// Request describes an outgoing call in a form that can be sent more than once.
type Request struct {
	Method string
	// Path is relative to the API base URL
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	// retried is set once the request has been replayed after a refresh
	retried bool
}

// NewJSONRequest encodes v as the body of the request. A nil v sends no body.
func NewJSONRequest(method, path string, v any) (Request, error) {
	req := Request{Method: method, Path: path, Header: http.Header{}}
	if v == nil {
		return req, nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return Request{}, err
	}
	req.Body = body
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// withTracing fixes the request ID and the trace before the first send so replays keep them.
func (r Request) withTracing(ctx context.Context) Request {
	header := r.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if header.Get(requestIDHeader) == "" {
		header.Set(requestIDHeader, utils.RequestID(ctx))
	}
	if traceParent := utils.TraceParent(ctx); traceParent != "" && header.Get(utils.SentryTraceHeader) == "" {
		header.Set(utils.SentryTraceHeader, traceParent)
	}
	r.Header = header
	return r
}

func (r Request) bodyReader() io.Reader {
	if r.Body == nil {
		return nil
	}
	return bytes.NewReader(r.Body)
}

// restoredBody puts the bytes that were already consumed back in front of the rest of the body.
type restoredBody struct {
	io.Reader
	io.Closer
}

func restoreBody(resp *http.Response, consumed []byte) {
	resp.Body = restoredBody{
		Reader: io.MultiReader(bytes.NewReader(consumed), resp.Body),
		Closer: resp.Body,
	}
}

func closeResponse(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxClassifiedBodySize))
	resp.Body.Close()
}
