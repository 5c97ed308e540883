package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MQTTMetrics tracks the broker connection used to publish games.
type MQTTMetrics struct {
	collectorSet

	ConnectionStatus  prometheus.Gauge
	MessagesDelivered prometheus.Counter
	Errors            prometheus.Counter
	LastConnectTime   prometheus.Gauge
	MessageSize       prometheus.Histogram
	PublishLatency    prometheus.Histogram
}

// NewMQTTMetrics builds the MQTT metric group and registers it.
func NewMQTTMetrics(registry prometheus.Registerer) (*MQTTMetrics, error) {
	const subsystem = "mqtt"

	m := &MQTTMetrics{
		ConnectionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "connected",
			Help: "1 while connected to the broker, 0 otherwise",
		}),
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "messages_delivered_total",
			Help: "Game records acknowledged by the broker",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "errors_total",
			Help: "Failed connects and publishes",
		}),
		LastConnectTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "last_connect_timestamp_seconds",
			Help: "Unix time of the last successful connect",
		}),
		MessageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name:    "message_size_bytes",
			Help:    "Published payload size",
			Buckets: prometheus.ExponentialBuckets(BucketStart64B, BucketFactor2, BucketCount10),
		}),
		PublishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name:    "publish_duration_seconds",
			Help:    "Time until the broker acknowledged a publish",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		}),
	}
	m.collectorSet = collectorSet{
		m.ConnectionStatus, m.MessagesDelivered, m.Errors,
		m.LastConnectTime, m.MessageSize, m.PublishLatency,
	}

	if err := register(registry, m.collectorSet); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateConnectionStatus flips the connected gauge and stamps successful connects.
func (m *MQTTMetrics) UpdateConnectionStatus(connected bool) {
	if !connected {
		m.ConnectionStatus.Set(0)
		return
	}
	m.ConnectionStatus.Set(1)
	m.LastConnectTime.SetToCurrentTime()
}

func (m *MQTTMetrics) IncrementMessagesDelivered() { m.MessagesDelivered.Inc() }

func (m *MQTTMetrics) IncrementErrors() { m.Errors.Inc() }

func (m *MQTTMetrics) ObserveMessageSize(sizeBytes float64) { m.MessageSize.Observe(sizeBytes) }

// PublishTimer measures a single publish.
type PublishTimer struct {
	start   time.Time
	latency prometheus.Histogram
}

func (m *MQTTMetrics) StartPublishTimer() *PublishTimer {
	return &PublishTimer{start: time.Now(), latency: m.PublishLatency}
}

// ObserveDuration records the time since the timer started.
func (pt *PublishTimer) ObserveDuration() {
	pt.latency.Observe(time.Since(pt.start).Seconds())
}
