package models

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is the error body returned by the notes backend
type APIError struct {
	Detail     string `json:"detail"`
	StatusCode int    `json:"status_code"`
	Type       string `json:"type,omitempty"`
	// HTTPStatus is the status of the response the error was read from
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	status := e.HTTPStatus
	if status == 0 {
		status = e.StatusCode
	}
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("request failed with status %d: %s", status, e.Detail)
}

const maxErrorBodySize = 64 * 1024

// ReadAPIError reads the error body of a failed response. Bodies that are not JSON
// are kept as the detail so that nothing the backend said is lost.
func ReadAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{HTTPStatus: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	if json.Unmarshal(raw, apiErr) != nil {
		apiErr.Detail = strings.TrimSpace(string(raw))
	}
	apiErr.HTTPStatus = resp.StatusCode
	return apiErr
}
