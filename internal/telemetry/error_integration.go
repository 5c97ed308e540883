// Package telemetry - integration with the error handling system
package telemetry

import (
	"github.com/getsentry/sentry-go"

	"github.com/courtside/wintracker/internal/errors"
)

// InitializeErrorIntegration points the errors package at Sentry, or detaches it when disabled.
func InitializeErrorIntegration(enabled bool) {
	if !enabled {
		errors.SetTelemetryReporter(nil)
		return
	}
	errors.SetTelemetryReporter(errors.NewSentryReporter(true, sentry.CurrentHub()))
}
