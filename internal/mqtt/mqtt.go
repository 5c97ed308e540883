// Package mqtt publishes every recorded game to an MQTT broker as JSON.
package mqtt

import (
	"context"
	"time"
)

// Client is the subset of broker operations the publisher needs.
type Client interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	IsConnected() bool
	Disconnect()
}

// Config carries the broker settings and the timeouts applied to each call.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	Retain   bool // keep the latest game at the broker for new subscribers

	ReconnectCooldown time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig holds the timeouts used when settings leave them unset.
func DefaultConfig() Config {
	return Config{
		ReconnectCooldown: 5 * time.Second,
		ConnectTimeout:    15 * time.Second,
		PublishTimeout:    5 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}
