package datastore

import (
	"fmt"

	"github.com/courtside/wintracker/internal/errors"
)

const component = "datastore"

// ErrNotInitialized is returned when a store is used before Open.
var ErrNotInitialized = errors.NewStd("database connection is not initialized")

// dbError tags err as a database failure of the named operation.
// kv holds extra context as alternating keys and values; a non-string key is skipped.
func dbError(err error, operation, priority string, kv ...any) error {
	b := errors.New(err).
		Component(component).
		Category(errors.CategoryDatabase).
		Priority(priority).
		Context("operation", operation)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			b.Context(key, kv[i+1])
		}
	}
	return b.Build()
}

// validationError rejects input before it reaches the database. Validation
// errors are never reported to telemetry.
func validationError(message, field string, value any) error {
	return errors.New(errors.NewStd(message)).
		Component(component).
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprint(value)).
		Build()
}
