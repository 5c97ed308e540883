// client.go: paho backed implementation of Client.

package mqtt

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/observability/metrics"
)

// ErrNotConnected is returned by Publish before a successful Connect.
var ErrNotConnected = errors.NewStd("not connected to MQTT broker")

// maxReconnectBackoff caps the delay between background connect attempts.
const maxReconnectBackoff = 5 * time.Minute

// client implements the Client interface.
type client struct {
	config          Config
	internalClient  paho.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	metrics         *metrics.MQTTMetrics
	log             logger.Logger

	// paho only auto-reconnects after a first successful connect, so a
	// failed Connect hands over to reconnectLoop until one succeeds.
	reconnectMu    sync.Mutex
	reconnecting   bool
	reconnectTimer *time.Timer
	reconnectStop  chan struct{}
	stopOnce       sync.Once
}

// NewClient creates a new MQTT client from settings. metrics may be nil.
func NewClient(settings *conf.Settings, m *metrics.MQTTMetrics, log logger.Logger) (Client, error) {
	if log == nil {
		log = logger.Global().Module("mqtt")
	}

	cfg := DefaultConfig()
	cfg.Broker = settings.MQTT.Broker
	cfg.Username = settings.MQTT.Username
	cfg.Password = settings.MQTT.Password
	cfg.Topic = settings.MQTT.Topic
	cfg.ClientID = settings.MQTT.ClientID
	if cfg.ClientID == "" {
		cfg.ClientID = "wintracker-" + uuid.NewString()
	}

	if _, err := parseBroker(cfg.Broker); err != nil {
		return nil, err
	}

	return &client{config: cfg, metrics: m, log: log, reconnectStop: make(chan struct{})}, nil
}

func parseBroker(broker string) (*url.URL, error) {
	u, err := url.Parse(broker)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		if err == nil {
			err = errors.NewStd("broker URL must look like tcp://host:port")
		}
		return nil, errors.New(err).
			Component("mqtt").
			Category(errors.CategoryConfiguration).
			Context("broker", broker).
			Build()
	}
	return u, nil
}

// Connect attempts to establish a connection to the MQTT broker.
// When the attempt fails, the client keeps retrying in the background with
// exponential backoff until it connects or Disconnect is called.
func (c *client) Connect(ctx context.Context) error {
	err := c.connect(ctx)
	if err != nil && !errors.Is(err, errConnectCooldown) {
		c.scheduleReconnect()
	}
	return err
}

// errConnectCooldown marks an attempt refused because the previous one was too recent.
var errConnectCooldown = errors.NewStd("connection attempt too recent")

// connect resolves the broker's hostname and then attempts one connection.
func (c *client) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped() {
		return errors.Newf("client was disconnected").
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Priority(errors.PriorityLow).
			Build()
	}
	if since := time.Since(c.lastConnAttempt); since < c.config.ReconnectCooldown {
		return errors.New(fmt.Errorf("%w, last attempt was %v ago", errConnectCooldown, since.Round(time.Millisecond))).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Priority(errors.PriorityLow).
			Build()
	}
	c.lastConnAttempt = time.Now()

	u, err := parseBroker(c.config.Broker)
	if err != nil {
		return err
	}

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			c.recordError()
			return c.connectionError(err, "resolve")
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	if c.internalClient != nil && !c.internalClient.IsConnected() {
		// a previous attempt that timed out may still be dialing
		c.internalClient.Disconnect(0)
	}
	c.internalClient = paho.NewClient(opts)

	token := c.internalClient.Connect()
	if err := waitToken(ctx, token, c.config.ConnectTimeout); err != nil {
		c.recordError()
		return c.connectionError(err, "connect")
	}

	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(true)
	}
	return nil
}

func (c *client) connectionError(err error, stage string) error {
	return errors.New(err).
		Component("mqtt").
		Category(errors.CategoryMQTTConnection).
		Context("broker", c.config.Broker).
		Context("stage", stage).
		Build()
}

// Publish sends a message to the specified topic on the MQTT broker.
func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isConnected() {
		return errors.New(ErrNotConnected).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Priority(errors.PriorityLow).
			Context("topic", topic).
			Build()
	}

	if c.metrics != nil {
		timer := c.metrics.StartPublishTimer()
		defer timer.ObserveDuration()
	}

	c.log.Debug("Publishing message", logger.String("topic", topic), logger.Int("size", len(payload)))

	token := c.internalClient.Publish(topic, 1, c.config.Retain, payload)
	if err := waitToken(ctx, token, c.config.PublishTimeout); err != nil {
		c.recordError()
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	if c.metrics != nil {
		c.metrics.IncrementMessagesDelivered()
		c.metrics.ObserveMessageSize(float64(len(payload)))
	}
	return nil
}

// waitToken waits for token to complete, ctx to end, or timeout to pass.
func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.NewStd("operation timed out")
	}
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected()
}

// isConnected requires c.mu.
func (c *client) isConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// scheduleReconnect starts reconnectLoop unless it is already running or
// the client has been stopped.
func (c *client) scheduleReconnect() {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()

	if c.reconnecting || c.stopped() {
		return
	}
	c.reconnecting = true
	c.reconnectTimer = time.AfterFunc(c.config.ReconnectCooldown, c.reconnectLoop)
}

func (c *client) stopped() bool {
	select {
	case <-c.reconnectStop:
		return true
	default:
		return false
	}
}

// reconnectLoop retries connect, doubling the delay after every failure.
func (c *client) reconnectLoop() {
	defer func() {
		c.reconnectMu.Lock()
		c.reconnecting = false
		c.reconnectMu.Unlock()
	}()

	backoff := max(c.config.ReconnectCooldown, time.Millisecond)
	for attempt := 1; ; attempt++ {
		if c.stopped() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.config.ConnectTimeout)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			c.log.Info("Reconnected to MQTT broker",
				logger.String("broker", c.config.Broker),
				logger.Int("attempts", attempt))
			return
		}

		c.log.Warn("MQTT reconnect failed",
			logger.String("broker", c.config.Broker),
			logger.Duration("retry_in", backoff),
			logger.Error(err))

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnectBackoff)
		case <-c.reconnectStop:
			return
		}
	}
}

// Disconnect stops background reconnects and closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	c.stopOnce.Do(func() { close(c.reconnectStop) })
	c.reconnectMu.Lock()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	c.reconnectMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internalClient == nil {
		return
	}
	if c.internalClient.IsConnectionOpen() {
		c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
	}
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
	}
}

func (c *client) onConnect(paho.Client) {
	c.log.Info("Connected to MQTT broker", logger.String("broker", c.config.Broker))
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(true)
	}
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	c.log.Warn("Connection to MQTT broker lost",
		logger.String("broker", c.config.Broker),
		logger.Error(err))
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
	}
	c.recordError()
}

func (c *client) recordError() {
	if c.metrics != nil {
		c.metrics.IncrementErrors()
	}
}
