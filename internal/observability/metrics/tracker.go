package metrics

import "github.com/prometheus/client_golang/prometheus"

// TrackerMetrics counts game submissions as the service sees them.
type TrackerMetrics struct {
	collectorSet

	gamesRecordedTotal  *prometheus.CounterVec
	submissionsRejected *prometheus.CounterVec
	winPercentageGauge  prometheus.Gauge
	totalGamesGauge     prometheus.Gauge
}

func NewTrackerMetrics(registry prometheus.Registerer) (*TrackerMetrics, error) {
	m := &TrackerMetrics{
		gamesRecordedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "games_recorded_total",
			Help:      "Total number of games stored, by result",
		}, []string{"result"}),
		submissionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "submissions_rejected_total",
			Help:      "Total number of game submissions rejected before storage",
		}, []string{"reason"}),
		winPercentageGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "win_percentage",
			Help:      "Win percentage computed by the last report",
		}),
		totalGamesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "games",
			Help:      "Number of games counted by the last report",
		}),
	}
	m.collectorSet = collectorSet{m.gamesRecordedTotal, m.submissionsRejected, m.winPercentageGauge, m.totalGamesGauge}

	if err := register(registry, m.collectorSet); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordGame counts a stored game.
func (m *TrackerMetrics) RecordGame(result string) {
	m.gamesRecordedTotal.WithLabelValues(result).Inc()
}

// RecordRejected counts a submission that failed validation.
func (m *TrackerMetrics) RecordRejected(reason string) {
	m.submissionsRejected.WithLabelValues(reason).Inc()
}

// UpdateReport publishes the latest aggregate figures.
func (m *TrackerMetrics) UpdateReport(total int, winPercentage float64) {
	m.totalGamesGauge.Set(float64(total))
	m.winPercentageGauge.Set(winPercentage)
}
