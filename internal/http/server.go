// Package http serves the troubleshooting API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/feedback"
	"github.com/bluecomlabs/netrod/internal/logging"
	"github.com/bluecomlabs/netrod/internal/troubleshoot"
)

// Pipeline is the service surface the API exposes.
type Pipeline interface {
	HandleQuery(ctx context.Context, query string) (troubleshoot.Response, error)
	HandleFeedback(ctx context.Context, e feedback.Entry) (feedback.Ack, error)
}

// Server hosts the HTTP API.
type Server struct {
	echo     *echo.Echo
	pipeline Pipeline
	cfg      config.ServerConfig
	logger   *logging.Logger
}

// New creates the API server and registers its routes.
func New(cfg config.ServerConfig, pipeline Pipeline, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, pipeline: pipeline, cfg: cfg, logger: logger.Named("http")}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	e.GET("/health", s.handleHealth)
	e.POST("/api/v1/query", s.handleQuery)
	e.POST("/api/v1/feedback", s.handleFeedback)

	return s
}

// requestLogger correlates entries via the echo request ID and logs one
// line per request.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := logging.ContextWithRequestID(c.Request().Context(), requestID)
		c.SetRequest(c.Request().WithContext(ctx))

		start := time.Now()
		err := next(c)

		s.logger.Info(ctx, "request handled",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)))
		return err
	}
}

// Start blocks serving requests until the context is cancelled, then
// shuts down gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info(ctx, "server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.echo }
