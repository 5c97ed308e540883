// Package httpcontroller wires the tracker's web interface onto Echo.
package httpcontroller

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/httpcontroller/handlers"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/observability/metrics"
	"github.com/courtside/wintracker/internal/tracker"
)

// Server encapsulates Echo server and related configurations.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	Handlers *handlers.Handlers
	metrics  *metrics.HTTPMetrics
	log      logger.Logger
}

// New builds the server, parses the templates and registers every route.
// m may be nil when telemetry is disabled.
func New(settings *conf.Settings, db handlers.Pinger, service *tracker.Service, m *metrics.HTTPMetrics, log logger.Logger, opts ...handlers.Option) (*Server, error) {
	if log == nil {
		log = logger.Global().Module("http")
	}

	s := &Server{
		Echo:     echo.New(),
		Settings: settings,
		metrics:  m,
		log:      log,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	renderer, err := newTemplateRenderer(m, log)
	if err != nil {
		return nil, err
	}
	s.Echo.Renderer = renderer

	s.Handlers = handlers.New(service, db, settings, log.Module("handlers"), opts...)
	s.Echo.HTTPErrorHandler = s.errorHandler

	s.configureMiddleware()
	s.initRoutes()

	return s, nil
}

// ServeHTTP lets the server be driven directly by net/http tooling.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Echo.ServeHTTP(w, r)
}

// Start listens on the configured port and serves until ctx is cancelled.
// It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	address := ":" + s.Settings.WebServer.Port
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.New(fmt.Errorf("listen on %s: %w", address, err)).
			Component("httpcontroller").
			Category(errors.CategoryNetwork).
			Context("address", address).
			Build()
	}
	return s.Serve(ctx, listener)
}

// Serve runs the server on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.Echo.Listener = listener

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", logger.String("address", listener.Addr().String()))
		errChan <- s.Echo.Start("")
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), metrics.ShutdownTimeout)
	defer cancel()
	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
