package metrics

import "github.com/prometheus/client_golang/prometheus"

// DatastoreMetrics tracks queries issued against the games table.
type DatastoreMetrics struct {
	collectorSet

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	failures   *prometheus.CounterVec
	rowCount   *prometheus.GaugeVec
	resultSize *prometheus.HistogramVec
}

// NewDatastoreMetrics builds the datastore metric group and registers it.
func NewDatastoreMetrics(registry prometheus.Registerer) (*DatastoreMetrics, error) {
	const subsystem = "datastore"

	m := &DatastoreMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "operations_total",
			Help: "Database operations, by outcome",
		}, []string{"operation", "table", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name:    "operation_duration_seconds",
			Help:    "Database operation latency",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		}, []string{"operation", "table"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "operation_errors_total",
			Help: "Database operations that returned an error",
		}, []string{"operation", "table", "error_type"}),
		rowCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "table_rows",
			Help: "Rows seen in a table by the last full read",
		}, []string{"table"}),
		resultSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name:    "query_result_rows",
			Help:    "Rows returned by list queries",
			Buckets: prometheus.ExponentialBuckets(1, BucketFactor2, BucketCount15),
		}, []string{"operation", "table"}),
	}
	m.collectorSet = collectorSet{m.operations, m.duration, m.failures, m.rowCount, m.resultSize}

	if err := register(registry, m.collectorSet); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatastoreMetrics) RecordDbOperation(operation, table, status string) {
	m.operations.WithLabelValues(operation, table, status).Inc()
}

// RecordDbOperationDuration observes latency in seconds.
func (m *DatastoreMetrics) RecordDbOperationDuration(operation, table string, duration float64) {
	m.duration.WithLabelValues(operation, table).Observe(duration)
}

func (m *DatastoreMetrics) RecordDbOperationError(operation, table, errorType string) {
	m.failures.WithLabelValues(operation, table, errorType).Inc()
}

// RecordQueryResultSize observes how many rows a list query returned.
func (m *DatastoreMetrics) RecordQueryResultSize(operation, table string, resultSize int) {
	m.resultSize.WithLabelValues(operation, table).Observe(float64(resultSize))
}

func (m *DatastoreMetrics) UpdateTableRowCount(table string, rowCount int64) {
	m.rowCount.WithLabelValues(table).Set(float64(rowCount))
}
