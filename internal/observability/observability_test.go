package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/testutil"
)

// TestNewMetricsConcurrency verifies each call gets its own registry.
func TestNewMetricsConcurrency(t *testing.T) {
	t.Parallel()

	const numGoroutines = 20

	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Go(func() {
			m, err := NewMetrics()
			if !assert.NoError(t, err) {
				return
			}
			assert.NotNil(t, m.Registry())
			assert.NotNil(t, m.HTTP)
			assert.NotNil(t, m.Datastore)
			assert.NotNil(t, m.Tracker)
			assert.NotNil(t, m.MQTT)
		})
	}
	wg.Wait()
}

func TestMetricsHandlerServesExposition(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Tracker.RecordGame("Win")

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wintracker_games_recorded_total{result="Win"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewEndpointRequiresTelemetry(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	settings := &conf.Settings{}
	_, err = NewEndpoint(settings, m, testutil.QuietLogger())
	require.Error(t, err)

	settings.Telemetry.Enabled = true
	_, err = NewEndpoint(settings, nil, testutil.QuietLogger())
	require.Error(t, err)
}

func TestEndpointStartAndShutdown(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.Telemetry.Enabled = true
	settings.Telemetry.Listen = "127.0.0.1:0"

	endpoint, err := NewEndpoint(settings, m, testutil.QuietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done, err := endpoint.Start(ctx)
	require.NoError(t, err)

	resp, err := http.Get("http://" + endpoint.Addr() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	err = testutil.WaitForChannel(t, done, testutil.DefaultTestTimeout, "telemetry endpoint did not stop")
	assert.NoError(t, err, "a cancelled endpoint shuts down cleanly")
}

// failingListener refuses every connection with a permanent error.
type failingListener struct{ net.Listener }

func (failingListener) Accept() (net.Conn, error) { return nil, errors.New("accept failed") }

func TestEndpointReportsServeError(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.Telemetry.Enabled = true
	settings.Telemetry.Listen = "127.0.0.1:0"

	endpoint, err := NewEndpoint(settings, m, testutil.QuietLogger())
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	done := endpoint.serve(t.Context(), failingListener{l})
	err = testutil.WaitForChannel(t, done, testutil.DefaultTestTimeout, "telemetry endpoint did not stop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accept failed")
}

func TestRegistryMetricTypes(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Tracker.RecordGame("Loss")
	m.Tracker.UpdateReport(1, 0)
	m.MQTT.UpdateConnectionStatus(true)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	types := make(map[string]dto.MetricType, len(families))
	for _, mf := range families {
		types[mf.GetName()] = mf.GetType()
	}

	tests := []struct {
		name string
		want dto.MetricType
	}{
		{"wintracker_games_recorded_total", dto.MetricType_COUNTER},
		{"wintracker_win_percentage", dto.MetricType_GAUGE},
		{"wintracker_games", dto.MetricType_GAUGE},
		{"wintracker_mqtt_connected", dto.MetricType_GAUGE},
		{"wintracker_mqtt_publish_duration_seconds", dto.MetricType_HISTOGRAM},
	}
	for _, tt := range tests {
		got, ok := types[tt.name]
		if assert.True(t, ok, "%s not gathered", tt.name) {
			assert.Equal(t, tt.want, got, tt.name)
		}
	}
}
