// Package testutil provides shared test fixtures for the wins tracker packages.
package testutil

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/logger"
)

// DefaultTestTimeout is the standard timeout for async test operations.
const DefaultTestTimeout = 5 * time.Second

// QuietLogger returns a logger that only keeps errors, and discards them.
func QuietLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

// SQLiteSettings returns settings pointing at a fresh SQLite file in t's temp dir.
func SQLiteSettings(t *testing.T) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{}
	settings.Main.Name = "Basketball Wins Tracker"
	settings.WebServer.Port = "0"
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "games.db")
	return settings
}

// WaitForChannel waits for ch to deliver or close, failing the test after timeout.
func WaitForChannel[T any](t *testing.T, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		require.FailNow(t, msg)
	}
	var zero T
	return zero
}
