package utils

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type requestIDKey struct{}

func GetRequestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// WithRequestID stores the ID so that requests made on behalf of an inbound request reuse it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the ID stored in the context or a new random one.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok && requestID != "" {
		return requestID
	}
	return uuid.NewString()
}

// ContextWithEchoRequestID carries the echo request ID over to the request context.
func ContextWithEchoRequestID(c echo.Context) context.Context {
	return WithRequestID(c.Request().Context(), GetRequestID(c))
}
