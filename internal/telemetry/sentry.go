// Package telemetry provides opt-in error reporting to Sentry.
// Prometheus metrics live in the observability package.
package telemetry

import (
	"fmt"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/courtside/wintracker/internal/buildinfo"
	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/logger"
)

// FlushTimeout bounds how long shutdown waits for queued events.
const FlushTimeout = 2 * time.Second

// InitSentry initializes the Sentry SDK when the user enabled it.
// It is a no-op when sentry.enabled is false.
func InitSentry(settings *conf.Settings, log logger.Logger) error {
	return initSentry(settings, log, nil)
}

// initSentry allows tests to supply their own transport.
func initSentry(settings *conf.Settings, log logger.Logger, transport sentry.Transport) error {
	if log == nil {
		log = logger.Global().Module("telemetry")
	}

	if !settings.Sentry.Enabled {
		log.Debug("Sentry error reporting is disabled (opt-in required)")
		InitializeErrorIntegration(false)
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		Debug:            settings.Sentry.Debug,
		SampleRate:       1.0,
		AttachStacktrace: false,
		ServerName:       "",
		Environment:      environment(settings),
		Release:          buildinfo.Get().Release(),
		BeforeSend:       applyPrivacyFilters,
		Transport:        transport,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
	})

	InitializeErrorIntegration(true)

	log.Info("Sentry error reporting initialized",
		logger.String("release", buildinfo.Get().Release()),
		logger.String("environment", environment(settings)))
	return nil
}

func environment(settings *conf.Settings) string {
	if settings.Debug {
		return "development"
	}
	return "production"
}

// applyPrivacyFilters strips host and user identifying data from every event.
func applyPrivacyFilters(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}
	return event
}

// Flush waits for queued events to be sent, up to FlushTimeout.
func Flush() bool {
	return sentry.Flush(FlushTimeout)
}
