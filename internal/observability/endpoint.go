// Package observability provides Prometheus metrics functionality for monitoring the wins tracker.
// Sentry error reporting is handled in the telemetry package.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/logger"
	metricspkg "github.com/courtside/wintracker/internal/observability/metrics"
)

// Endpoint serves /metrics on its own listener, separate from the web UI.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
	log           logger.Logger
}

// NewEndpoint creates a new telemetry Endpoint for the given metrics.
// It returns an error if telemetry is not enabled in settings.
func NewEndpoint(settings *conf.Settings, metrics *Metrics, log logger.Logger) (*Endpoint, error) {
	if !settings.Telemetry.Enabled {
		return nil, fmt.Errorf("telemetry not enabled in settings")
	}
	if metrics == nil {
		return nil, fmt.Errorf("telemetry endpoint requires metrics")
	}
	if log == nil {
		log = logger.Global().Module("telemetry")
	}

	return &Endpoint{
		listenAddress: settings.Telemetry.Listen,
		metrics:       metrics,
		log:           log,
	}, nil
}

// Start binds the listener and serves metrics until ctx is cancelled.
// The returned channel yields the serve error, nil after a clean shutdown,
// and is closed once the server has fully stopped.
func (e *Endpoint) Start(ctx context.Context) (<-chan error, error) {
	listener, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return nil, fmt.Errorf("telemetry listen on %s: %w", e.listenAddress, err)
	}
	e.listenAddress = listener.Addr().String()
	return e.serve(ctx, listener), nil
}

func (e *Endpoint) serve(ctx context.Context, listener net.Listener) <-chan error {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: metricspkg.ShutdownTimeout,
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		e.log.Info("Telemetry endpoint starting", logger.String("address", listener.Addr().String()))
		err := e.server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			e.log.Error("Telemetry HTTP server error", logger.Error(err))
			err = fmt.Errorf("telemetry endpoint: %w", err)
		}
		done <- err
	}()

	go e.gracefulShutdown(ctx)
	return done
}

// Addr returns the address the endpoint listens on, resolved after Start.
func (e *Endpoint) Addr() string {
	return e.listenAddress
}

func (e *Endpoint) gracefulShutdown(ctx context.Context) {
	<-ctx.Done()
	e.log.Info("Stopping telemetry server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(shutdownCtx); err != nil {
		e.log.Error("Telemetry server shutdown error", logger.Error(err))
	}
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
