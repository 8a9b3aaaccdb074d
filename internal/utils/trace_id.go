package utils

import (
	"context"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

// SentryTraceHeader carries the trace to the notes backend so its spans join the same trace.
const SentryTraceHeader string = "sentry-trace"

// GetTraceID returns the trace of the request, empty when tracing is off.
func GetTraceID(c echo.Context) string {
	if span := sentryecho.GetSpanFromContext(c); span != nil {
		return span.TraceID.String()
	}
	if span := sentry.SpanFromContext(c.Request().Context()); span != nil {
		return span.TraceID.String()
	}
	return ""
}

// TraceParent is the sentry-trace value of the hub bound to ctx.
func TraceParent(ctx context.Context) string {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return ""
	}
	return hub.GetTraceparent()
}
