package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/observability/metrics"
)

func quietLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func mqttSettings(broker string) *conf.Settings {
	settings := &conf.Settings{}
	settings.MQTT.Enabled = true
	settings.MQTT.Broker = broker
	settings.MQTT.Topic = "wintracker/test"
	return settings
}

func TestNewClientRejectsBadBroker(t *testing.T) {
	t.Parallel()

	for _, broker := range []string{"", "localhost:1883", "tcp://", "://bad"} {
		_, err := NewClient(mqttSettings(broker), nil, quietLogger())
		require.Error(t, err, broker)
		assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration), broker)
	}
}

func TestNewClientGeneratesClientID(t *testing.T) {
	t.Parallel()

	first, err := NewClient(mqttSettings("tcp://127.0.0.1:1883"), nil, quietLogger())
	require.NoError(t, err)
	second, err := NewClient(mqttSettings("tcp://127.0.0.1:1883"), nil, quietLogger())
	require.NoError(t, err)

	firstID := first.(*client).config.ClientID
	assert.True(t, strings.HasPrefix(firstID, "wintracker-"))
	assert.NotEqual(t, firstID, second.(*client).config.ClientID)

	settings := mqttSettings("tcp://127.0.0.1:1883")
	settings.MQTT.ClientID = "scorer-table"
	fixed, err := NewClient(settings, nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "scorer-table", fixed.(*client).config.ClientID)
}

func TestPublishWhileDisconnected(t *testing.T) {
	t.Parallel()

	c, err := NewClient(mqttSettings("tcp://127.0.0.1:1883"), nil, quietLogger())
	require.NoError(t, err)

	assert.False(t, c.IsConnected())
	err = c.Publish(t.Context(), "wintracker/test", []byte("{}"))
	require.ErrorIs(t, err, ErrNotConnected)

	c.Disconnect()
}

// closedPort returns a local address nothing listens on.
func closedPort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestConnectRefused(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewMQTTMetrics(registry)
	require.NoError(t, err)

	c, err := NewClient(mqttSettings("tcp://"+closedPort(t)), m, quietLogger())
	require.NoError(t, err)
	c.(*client).config.ConnectTimeout = 2 * time.Second

	err = c.Connect(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
	assert.False(t, c.IsConnected())
	assert.InDelta(t, 1, testutil.ToFloat64(m.Errors), 0)

	err = c.Connect(t.Context())
	require.Error(t, err, "a second attempt inside the cooldown is refused")
	assert.Contains(t, err.Error(), "too recent")

	c.Disconnect()
}

func TestWaitTokenHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := waitToken(ctx, pendingToken{done: make(chan struct{})}, time.Minute)
	require.ErrorIs(t, err, context.Canceled)

	err = waitToken(t.Context(), pendingToken{done: make(chan struct{})}, 10*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

// pendingToken is a paho token that completes only when done is closed.
type pendingToken struct {
	done chan struct{}
	err  error
}

func (p pendingToken) Wait() bool                     { <-p.done; return true }
func (p pendingToken) WaitTimeout(time.Duration) bool { return false }
func (p pendingToken) Done() <-chan struct{}          { return p.done }
func (p pendingToken) Error() error                   { return p.err }

type fakeClient struct {
	topic   string
	payload []byte
	err     error
}

func (f *fakeClient) Connect(context.Context) error { return nil }
func (f *fakeClient) IsConnected() bool             { return true }
func (f *fakeClient) Disconnect()                   {}

func (f *fakeClient) Publish(_ context.Context, topic string, payload []byte) error {
	f.topic = topic
	f.payload = payload
	return f.err
}

func TestGamePublisherPayload(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	p := NewGamePublisher(fc, "league/games", quietLogger())
	p.now = func() time.Time { return time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC) }

	game := datastore.Game{ID: 7, Date: "2024-01-10", Opponent: "Lakers", Score: "85-82", Result: datastore.ResultWin}
	require.NoError(t, p.NotifyGame(t.Context(), game))

	assert.Equal(t, "league/games", fc.topic)
	assert.JSONEq(t, `{
		"id": 7,
		"date": "2024-01-10",
		"opponent": "Lakers",
		"score": "85-82",
		"result": "Win",
		"recordedAt": "2024-01-10T20:00:00Z"
	}`, string(fc.payload))

	var decoded GameEventDTO
	require.NoError(t, json.Unmarshal(fc.payload, &decoded))
	assert.Empty(t, decoded.Notes)
}

func TestGamePublisherPropagatesError(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{err: ErrNotConnected}
	p := NewGamePublisher(fc, "league/games", quietLogger())

	err := p.NotifyGame(t.Context(), datastore.Game{ID: 1, Result: datastore.ResultLoss})
	require.ErrorIs(t, err, ErrNotConnected)
}

// TestBrokerRoundTrip publishes against a real broker when one is configured.
func TestBrokerRoundTrip(t *testing.T) {
	broker := os.Getenv("WINTRACKER_TEST_MQTT_BROKER")
	if broker == "" {
		t.Skip("WINTRACKER_TEST_MQTT_BROKER not set")
	}

	c, err := NewClient(mqttSettings(broker), nil, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	t.Cleanup(c.Disconnect)
	assert.True(t, c.IsConnected())

	p := NewGamePublisher(c, "wintracker/test", quietLogger())
	require.NoError(t, p.NotifyGame(ctx, datastore.Game{ID: 1, Date: "2024-01-10", Opponent: "Lakers", Score: "85-82", Result: datastore.ResultWin}))
}

// startLocalBroker accepts MQTT connections on addr, acknowledges CONNECT and
// QoS 1 PUBLISH packets, and forwards every published message to the returned channel.
func startLocalBroker(t *testing.T, addr string) <-chan *packets.PublishPacket {
	t.Helper()

	l, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	published := make(chan *packets.PublishPacket, 4)
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go serveBrokerConn(conn, published)
		}
	}()
	return published
}

func serveBrokerConn(conn net.Conn, published chan<- *packets.PublishPacket) {
	defer conn.Close()
	for {
		cp, err := packets.ReadPacket(conn)
		if err != nil {
			return
		}
		var reply packets.ControlPacket
		switch p := cp.(type) {
		case *packets.ConnectPacket:
			ack := packets.NewControlPacket(packets.Connack).(*packets.ConnackPacket)
			ack.ReturnCode = packets.Accepted
			reply = ack
		case *packets.PublishPacket:
			published <- p
			if p.Qos == 1 {
				ack := packets.NewControlPacket(packets.Puback).(*packets.PubackPacket)
				ack.MessageID = p.MessageID
				reply = ack
			}
		case *packets.PingreqPacket:
			reply = packets.NewControlPacket(packets.Pingresp)
		case *packets.DisconnectPacket:
			return
		}
		if reply != nil {
			if err := reply.Write(conn); err != nil {
				return
			}
		}
	}
}

func TestReconnectsAfterBrokerComesUp(t *testing.T) {
	t.Parallel()

	addr := closedPort(t)
	c, err := NewClient(mqttSettings("tcp://"+addr), nil, quietLogger())
	require.NoError(t, err)
	t.Cleanup(c.Disconnect)
	c.(*client).config.ReconnectCooldown = 50 * time.Millisecond
	c.(*client).config.ConnectTimeout = time.Second

	require.Error(t, c.Connect(t.Context()), "nothing listens yet")
	assert.False(t, c.IsConnected())

	published := startLocalBroker(t, addr)

	require.Eventually(t, c.IsConnected, 5*time.Second, 20*time.Millisecond,
		"client should reconnect once the broker accepts connections")

	p := NewGamePublisher(c, "league/games", quietLogger())
	require.NoError(t, p.NotifyGame(t.Context(), datastore.Game{ID: 3, Date: "2024-02-01", Opponent: "Celtics", Score: "90-99", Result: datastore.ResultLoss}))

	select {
	case msg := <-published:
		assert.Equal(t, "league/games", msg.TopicName)
		assert.Contains(t, string(msg.Payload), `"opponent":"Celtics"`)
	case <-time.After(5 * time.Second):
		t.Fatal("broker never received the game event")
	}
}

func TestDisconnectStopsReconnecting(t *testing.T) {
	t.Parallel()

	c, err := NewClient(mqttSettings("tcp://"+closedPort(t)), nil, quietLogger())
	require.NoError(t, err)
	c.(*client).config.ReconnectCooldown = 10 * time.Millisecond

	require.Error(t, c.Connect(t.Context()))
	c.Disconnect()

	err = c.Connect(t.Context())
	require.Error(t, err, "a disconnected client does not dial again")
	assert.Contains(t, err.Error(), "disconnected")
}
