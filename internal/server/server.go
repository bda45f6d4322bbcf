// Package server exposes the access layer as a JSON facade: stream and
// category lookups, the OAuth operator flow, operator settings and health
// endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/PabloB07/kick-wp/internal/config"
	"github.com/PabloB07/kick-wp/internal/credentials"
	"github.com/PabloB07/kick-wp/internal/kick"
)

// The echoprometheus middleware registers its collectors on the default
// registry, so it must only be built once per process.
var prometheusMiddleware = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("kickwp")
})

// StreamService is the slice of the Kick client the stream handlers need.
type StreamService interface {
	FeaturedStreams(ctx context.Context, limit int, category string) kick.StreamsResult
	Categories(ctx context.Context) kick.CategoriesResult
	Streamer(ctx context.Context, username string) kick.StreamsResult
	FollowedStreams(ctx context.Context) kick.StreamsResult
	TestConnection(ctx context.Context) kick.ConnectionTest
	ClearCache(ctx context.Context) bool
}

// AuthService is the slice of the OAuth manager the auth handlers need.
type AuthService interface {
	Configured() bool
	AuthorizeURL(ctx context.Context) (string, error)
	HandleCallback(ctx context.Context, code, state, errParam, errDescription string) error
	Refresh(ctx context.Context) error
	Revoke(ctx context.Context) error
	Status(ctx context.Context) string
}

// Pinger is anything whose liveness can be checked (pgx pool, redis client).
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	streams  StreamService
	auth     AuthService
	settings credentials.Store

	dbPing    Pinger
	redisPing Pinger
}

func New(cfg *config.Config, streams StreamService, auth AuthService, settings credentials.Store, dbPing, redisPing Pinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		cfg:       cfg,
		streams:   streams,
		auth:      auth,
		settings:  settings,
		dbPing:    dbPing,
		redisPing: redisPing,
	}

	e.Use(middleware.Recover())
	e.Use(correlationMiddleware())
	e.Use(requestLoggerMiddleware())
	e.Use(prometheusMiddleware())
	e.Use(rateLimitMiddleware())

	s.registerRoutes()
	return s
}

// Start blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	slog.Info("Starting HTTP server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) healthLive(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) healthReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.dbPing.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := s.redisPing.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]any{"status": checks})
}
