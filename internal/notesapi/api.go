// Package notesapi exposes the notes backend endpoints as typed calls made through the gateway.
package notesapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/models"
)

// call sends the request and decodes a successful JSON response into out. Responses outside
// the 2xx range are returned as *models.APIError.
func call(ctx context.Context, api authclient.Doer, req authclient.Request, out any) error {
	resp, err := api.Do(ctx, req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	return decodeResponse(resp, out)
}

func callJSON(ctx context.Context, api authclient.Doer, method, path string, in, out any) error {
	req, err := authclient.NewJSONRequest(method, path, in)
	if err != nil {
		return err
	}
	return call(ctx, api, req, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.ReadAPIError(resp)
	}
	if out == nil {
		return nil
	}
	err := json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("cannot decode the response: %w", err)
	}
	return nil
}
