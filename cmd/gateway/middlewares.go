package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/notesphere/notes-gateway/internal/utils"
)

var logLevel *slog.LevelVar = new(slog.LevelVar)
var jsonLogger *slog.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

func setLogLevel(debugMode bool) {
	if debugMode {
		logLevel.Set(slog.LevelDebug)
		return
	}
	logLevel.Set(slog.LevelInfo)
}

var requestLogger echo.MiddlewareFunc = middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
	LogStatus:    true,
	LogURI:       true,
	LogError:     true,
	LogRequestID: true,
	LogRoutePath: true, // logs the handler path in the server that matched the request path
	LogMethod:    true,
	LogUserAgent: true,
	LogLatency:   true,
	HandleError:  true, // forwards error to the global error handler, so it can decide appropriate status code
	LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
		attrs := []slog.Attr{
			slog.String("uri", v.URI),
			slog.Int("status", v.Status),
			slog.String("requestID", v.RequestID),
			slog.String("traceID", utils.GetTraceID(c)),
			slog.String("method", v.Method),
			slog.String("handler", v.RoutePath),
			slog.String("userAgent", v.UserAgent),
			slog.Duration("latency", v.Latency),
		}
		if v.Error == nil {
			jsonLogger.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST", attrs...)
		} else {
			attrs = append(attrs, slog.String("error", v.Error.Error()))
			jsonLogger.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR", attrs...)
		}
		return nil
	},
})
var commonMiddlewares []echo.MiddlewareFunc = []echo.MiddlewareFunc{requestLogger}
