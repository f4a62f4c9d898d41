// Package server exposes the router over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/intentgate/internal/profile"
	"github.com/hrygo/intentgate/internal/version"
	"github.com/hrygo/intentgate/router"
)

// Server wires the orchestrator and metrics exporter into an Echo
// instance with graceful shutdown.
type Server struct {
	Profile *profile.Profile

	echoServer   *echo.Echo
	orchestrator *router.Orchestrator
}

// NewServer creates the HTTP server. metricsHandler may be nil when the
// exporter is disabled.
func NewServer(instanceProfile *profile.Profile, orchestrator *router.Orchestrator, metricsHandler http.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	s := &Server{
		Profile:      instanceProfile,
		echoServer:   e,
		orchestrator: orchestrator,
	}

	e.GET("/healthz", s.healthz)
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	apiGroup := e.Group("/api/v1")
	apiGroup.POST("/classify", s.classify)

	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests with a bounded grace period.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server shutdown gracefully")
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetCurrentVersion(s.Profile.Mode),
	})
}
