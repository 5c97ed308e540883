package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// MockTransport records events instead of sending them.
type MockTransport struct {
	mu     sync.RWMutex
	events []*sentry.Event
}

func (t *MockTransport) Configure(sentry.ClientOptions) {}

func (t *MockTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *MockTransport) Flush(time.Duration) bool { return true }

func (t *MockTransport) FlushWithContext(ctx context.Context) bool {
	return ctx.Err() == nil
}

func (t *MockTransport) Close() {}

// Events returns a copy of the captured events.
func (t *MockTransport) Events() []*sentry.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*sentry.Event(nil), t.events...)
}
