package datastore

import (
	"time"

	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/observability/metrics"
)

// Metrics is the subset of datastore metrics the stores record.
type Metrics = metrics.DatastoreMetrics

// recordOperation records the outcome and duration of a single operation.
// A nil metrics value disables recording.
func (ds *DataStore) recordOperation(operation string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		ds.metrics.RecordDbOperationError(operation, metrics.LabelGames, errorType(err))
	}
	ds.metrics.RecordDbOperation(operation, metrics.LabelGames, status)
	ds.metrics.RecordDbOperationDuration(operation, metrics.LabelGames, time.Since(start).Seconds())
}

func errorType(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return "unknown"
}
