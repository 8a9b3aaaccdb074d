package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/credentials"
	"github.com/notesphere/notes-gateway/internal/keepalive"
	"github.com/notesphere/notes-gateway/internal/login"
	"github.com/notesphere/notes-gateway/internal/metrics"
	"github.com/notesphere/notes-gateway/internal/notesapi"
	"github.com/notesphere/notes-gateway/internal/revproxy"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

func main() {
	// Logging setup
	slog.SetDefault(jsonLogger)
	// Load configuration
	ch := config.NewConfigHandler()
	gwConfig, err := ch.Config()
	if err != nil {
		slog.Error("loading the configuration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("loaded config", "config", gwConfig)
	// Set log level to "debug" if activated
	setLogLevel(gwConfig.DebugMode)
	// Only the log level is picked up from changes of the config files, the rest needs a restart
	ch.HandleChanges(func(newConfig config.Config, err error) {
		if err != nil {
			slog.Error("the changed config is invalid and was ignored", "error", err)
			return
		}
		setLogLevel(newConfig.DebugMode)
	})
	ch.Watch()
	// Setup
	e := echo.New()
	e.Pre(middleware.RequestID(), middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	// The banner and the port do not respect the logger formatting we set below so we remove them
	// the port will be logged further down when the server starts.
	e.HideBanner = true
	e.HidePort = true
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	// Version endpoint
	buildInfo, ok := debug.ReadBuildInfo()
	version := ""
	if ok && buildInfo != nil {
		version = buildInfo.Main.Version
	}
	e.GET("/version", func(c echo.Context) error {
		return c.String(http.StatusOK, version)
	})
	// Gateway metrics are only registered when they can be scraped
	gwMetrics := metrics.Noop()
	if gwConfig.Monitoring.Prometheus.Enabled {
		gwMetrics = metrics.NewGatewayMetrics(prometheus.DefaultRegisterer)
	}
	// Initialize the credential store
	store, err := credentials.NewStore(gwConfig.Credentials, gwConfig.Redis)
	if err != nil {
		slog.Error("credential store initialization failed", "error", err)
		os.Exit(1)
	}
	// Initialize the gateway client
	api, err := authclient.NewClient(
		authclient.WithConfig(gwConfig.API),
		authclient.WithCredentialStore(store),
		authclient.WithMetrics(gwMetrics),
		authclient.WithSignOutHandler(func(ctx context.Context, err error) {
			slog.Warn("GATEWAY", "message", "the session has ended, the user has to sign in again", "error", err)
		}),
	)
	if err != nil {
		slog.Error("gateway client initialization failed", "error", err)
		os.Exit(1)
	}
	services, err := notesapi.NewServices(api, store, gwConfig)
	if err != nil {
		slog.Error("api services initialization failed", "error", err)
		os.Exit(1)
	}
	// Initialize the reverse proxy
	revproxy, err := revproxy.NewServer(
		revproxy.WithConfig(gwConfig.Revproxy),
		revproxy.WithGateway(api),
		revproxy.WithLoginEntryPath(gwConfig.Login.LoginEntryPath),
		revproxy.WithRefreshPath(gwConfig.API.RefreshPath),
	)
	if err != nil {
		slog.Error("revproxy handlers initialization failed", "error", err)
		os.Exit(1)
	}
	revproxy.RegisterHandlers(e, commonMiddlewares...)
	// Initialize login server
	loginServer, err := login.NewLoginServer(
		login.WithConfig(gwConfig.Login),
		login.WithAuthService(services.Auth),
		login.WithCredentialsReader(api),
	)
	if err != nil {
		slog.Error("login handlers initialization failed", "error", err)
		os.Exit(1)
	}
	loginServer.RegisterHandlers(e, commonMiddlewares...)
	// Keep the session alive in the background
	if gwConfig.Keepalive.Enabled {
		ka, err := keepalive.NewKeepalive(keepalive.WithRefresher(api), keepalive.WithConfig(gwConfig.Keepalive))
		if err != nil {
			slog.Error("keepalive initialization failed", "error", err)
			os.Exit(1)
		}
		scheduler, err := ka.GetScheduler()
		if err != nil {
			slog.Error("keepalive scheduler initialization failed", "error", err)
			os.Exit(1)
		}
		scheduler.StartAsync()
		defer scheduler.Stop()
	}
	// Rate limiting
	if gwConfig.Server.RateLimits.Enabled {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(gwConfig.Server.RateLimits.Rate),
					Burst:     gwConfig.Server.RateLimits.Burst,
					ExpiresIn: 3 * time.Minute,
				}),
		),
		)
	}
	// CORS
	if len(gwConfig.Server.AllowOrigin) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: gwConfig.Server.AllowOrigin, AllowCredentials: true}))
	}
	// Sentry
	if gwConfig.Monitoring.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              string(gwConfig.Monitoring.Sentry.Dsn),
			TracesSampleRate: gwConfig.Monitoring.Sentry.SampleRate,
			Environment:      gwConfig.Monitoring.Sentry.Environment,
		})
		if err != nil {
			slog.Error("sentry initialization failed", "error", err)
		}
		e.Use(sentryecho.New(sentryecho.Options{}))
	}
	// Prometheus
	if gwConfig.Monitoring.Prometheus.Enabled {
		e.Use(echoprometheus.NewMiddleware("gateway"))
		go func() {
			metrics := echo.New()
			metrics.HideBanner = true
			metrics.HidePort = true
			metrics.GET("/metrics", echoprometheus.NewHandler())
			err := metrics.Start(fmt.Sprintf(":%d", gwConfig.Monitoring.Prometheus.Port))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("prometheus server failed to start", "error", err)
				os.Exit(1)
			}
		}()
	}
	// Start server
	address := fmt.Sprintf("%s:%d", gwConfig.Server.Host, gwConfig.Server.Port)
	slog.Info("starting the server on address " + address)
	go func() {
		err := e.Start(address)
		if err != nil && err != http.ErrServerClosed {
			slog.Error("shutting down the server gracefuly failed", "error", err)
			os.Exit(1)
		}
	}()
	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("received signal to shut down the server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("shutting down the server gracefully failed", "error", err)
		os.Exit(1)
	}
	services.Uploads.Wait()
}
