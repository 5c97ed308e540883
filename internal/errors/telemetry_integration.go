// Package errors - telemetry integration (optional)
package errors

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var telemetryReporter atomic.Pointer[reporterHolder]

type reporterHolder struct {
	reporter TelemetryReporter
}

// SetTelemetryReporter installs the reporter used by Build. A nil reporter disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	if reporter == nil {
		telemetryReporter.Store(nil)
		return
	}
	telemetryReporter.Store(&reporterHolder{reporter: reporter})
}

// reportToTelemetry forwards errors worth reporting. Validation and not-found
// errors are user mistakes, not faults, and are never sent.
func reportToTelemetry(ee *EnhancedError) {
	holder := telemetryReporter.Load()
	if holder == nil || !holder.reporter.IsEnabled() {
		return
	}
	switch ee.Category {
	case CategoryValidation, CategoryNotFound:
		return
	}
	holder.reporter.ReportError(ee)
}

// SentryReporter implements TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
	hub     *sentry.Hub
}

// NewSentryReporter creates a reporter that captures on the given hub, or the current hub when nil.
func NewSentryReporter(enabled bool, hub *sentry.Hub) *SentryReporter {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentryReporter{enabled: enabled, hub: hub}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry with credentials scrubbed
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	message := basicURLScrub(fmt.Sprintf("[%s] %s", ee.Category, ee.Err.Error()))

	sr.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = basicURLScrub(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}
		scope.SetFingerprint([]string{ee.GetComponent(), string(ee.Category)})

		event := sentry.NewEvent()
		event.Message = message
		event.Level = sentryLevel(ee)
		event.Exception = []sentry.Exception{{
			Type:  fmt.Sprintf("%s %s", ee.GetComponent(), ee.Category),
			Value: message,
		}}
		sr.hub.CaptureEvent(event)
	})

	ee.MarkReported()
}

func sentryLevel(ee *EnhancedError) sentry.Level {
	switch ee.Priority {
	case PriorityCritical:
		return sentry.LevelFatal
	case PriorityLow:
		return sentry.LevelWarning
	default:
		return sentry.LevelError
	}
}

var (
	dsnCredentialsPattern = regexp.MustCompile(`([A-Za-z0-9_.\-]+):([^@\s/]+)@`)
	passwordParamPattern  = regexp.MustCompile(`(?i)(password|passwd|pwd|token|secret)=([^&\s]+)`)
)

// basicURLScrub removes credentials embedded in DSNs and query strings.
func basicURLScrub(message string) string {
	message = dsnCredentialsPattern.ReplaceAllString(message, "$1:[REDACTED]@")
	return passwordParamPattern.ReplaceAllString(message, "$1=[REDACTED]")
}
