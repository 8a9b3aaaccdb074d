package revproxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	pathpkg "path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/notesphere/notes-gateway/internal/utils"
)

const signedOutType string = "signed_out"

// hopHeaders only apply to a single connection and are never forwarded
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// droppedRequestHeaders are set again by the http client or the gateway
var droppedRequestHeaders = []string{
	echo.HeaderAuthorization,
	echo.HeaderCookie,
	"Content-Length",
	"Host",
	"Accept-Encoding",
}

func (r *Revproxy) forward(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		body = nil
	}
	path := strings.TrimPrefix(req.URL.Path, r.config.PathPrefix)
	if path == "" {
		path = "/"
	}
	if r.isTokenEndpoint(path) {
		slog.Warn(
			"REVPROXY",
			"message", "refusing to forward to a token endpoint",
			"path", req.URL.Path,
			"requestID", utils.GetRequestID(c),
		)
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	ctx := utils.ContextWithEchoRequestID(c)
	resp, err := r.api.Do(ctx, authclient.Request{
		Method: req.Method,
		Path:   path,
		Query:  req.URL.Query(),
		Header: forwardedHeader(req.Header),
		Body:   body,
	})
	if err != nil {
		return r.forwardError(c, err)
	}
	defer resp.Body.Close()

	copyHeader(c.Response().Header(), resp.Header)
	c.Response().Header().Del("Set-Cookie")
	c.Response().WriteHeader(resp.StatusCode)
	if strings.HasPrefix(resp.Header.Get(echo.HeaderContentType), "text/event-stream") {
		return streamBody(c.Response(), resp.Body)
	}
	_, err = io.Copy(c.Response(), resp.Body)
	return err
}

// isTokenEndpoint reports whether the path resolves to a backend endpoint whose response carries
// tokens. The path is cleaned the same way the gateway client joins it onto the base URL.
func (r *Revproxy) isTokenEndpoint(path string) bool {
	cleaned := pathpkg.Clean("/" + path)
	for _, reserved := range []string{backendAuthPath, pathpkg.Clean("/" + r.refreshPath)} {
		if cleaned == reserved || strings.HasPrefix(cleaned, reserved+"/") {
			return true
		}
	}
	return false
}

func (r *Revproxy) forwardError(c echo.Context, err error) error {
	if errors.Is(err, gwerrors.ErrRefreshFailed) {
		c.Response().Header().Set(echo.HeaderLocation, r.loginEntryPath)
		return c.JSON(http.StatusUnauthorized, models.APIError{
			Detail:     "the session has ended, please sign in again",
			StatusCode: http.StatusUnauthorized,
			Type:       signedOutType,
		})
	}
	if errors.Is(err, context.Canceled) {
		slog.Debug("REVPROXY", "message", "the client went away", "path", c.Request().URL.Path)
		return nil
	}
	slog.Error(
		"REVPROXY",
		"message", "forwarding the request failed",
		"path", c.Request().URL.Path,
		"requestID", utils.GetRequestID(c),
		"traceparent", utils.TraceParent(c.Request().Context()),
		"error", err,
	)
	return echo.NewHTTPError(http.StatusBadGateway, "the notes backend cannot be reached")
}

func forwardedHeader(inbound http.Header) http.Header {
	header := inbound.Clone()
	removeHopHeaders(header)
	for _, name := range droppedRequestHeaders {
		header.Del(name)
	}
	return header
}

func copyHeader(dst, src http.Header) {
	for name, values := range src {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
	removeHopHeaders(dst)
	dst.Del("Content-Length")
}

// removeHopHeaders also drops the headers named in the Connection header.
func removeHopHeaders(header http.Header) {
	for _, value := range header.Values("Connection") {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				header.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		header.Del(name)
	}
}

// streamBody writes every chunk as soon as it arrives so that server sent events are not held back.
func streamBody(w *echo.Response, body io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			_, writeErr := w.Write(buf[:n])
			if writeErr != nil {
				return writeErr
			}
			w.Flush()
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
