// Package errors wraps application errors with a category, component and
// context so handlers can map them to responses and telemetry can group them.
// It also re-exports the standard library helpers, so callers import a single
// errors package.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"sync/atomic"
	"time"
)

// ErrorCategory groups errors by what went wrong, not where.
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryDatabase       ErrorCategory = "database"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryNotFound       ErrorCategory = "not-found"
	CategoryFileIO         ErrorCategory = "file-io"
	CategoryNetwork        ErrorCategory = "network"
	CategoryMQTTConnection ErrorCategory = "mqtt-connection"
	CategoryMQTTPublish    ErrorCategory = "mqtt-publish"
	CategorySystem         ErrorCategory = "system-resource"
	CategoryGeneric        ErrorCategory = "generic"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ComponentUnknown is recorded when the builder was never given a component.
const ComponentUnknown = "unknown"

// EnhancedError is an error annotated by an ErrorBuilder. Its fields are
// fixed once Build returns; only the reported flag changes afterwards.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Priority  string // empty unless set explicitly
	Timestamp time.Time

	component string
	context   map[string]any
	reported  atomic.Bool
}

func (ee *EnhancedError) Error() string { return ee.Err.Error() }

func (ee *EnhancedError) Unwrap() error { return ee.Err }

// Is matches another EnhancedError by category, otherwise defers to the wrapped error.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

func (ee *EnhancedError) GetComponent() string { return ee.component }

func (ee *EnhancedError) GetCategory() string { return string(ee.Category) }

func (ee *EnhancedError) GetPriority() string { return ee.Priority }

// GetContext returns a copy of the context attached by the builder, or nil.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.context == nil {
		return nil
	}
	return maps.Clone(ee.context)
}

// MarkReported records that telemetry has captured this error.
func (ee *EnhancedError) MarkReported() { ee.reported.Store(true) }

func (ee *EnhancedError) IsReported() bool { return ee.reported.Load() }

// ErrorBuilder assembles an EnhancedError step by step.
//
//	errors.New(err).Component("datastore").Category(errors.CategoryDatabase).Build()
type ErrorBuilder struct {
	ee EnhancedError
}

func New(err error) *ErrorBuilder {
	return &ErrorBuilder{ee: EnhancedError{Err: err}}
}

func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.ee.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.ee.Category = category
	return eb
}

// Priority sets an explicit priority. Unknown values are treated as medium.
func (eb *ErrorBuilder) Priority(priority string) *ErrorBuilder {
	switch priority {
	case "":
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		eb.ee.Priority = priority
	default:
		eb.ee.Priority = PriorityMedium
	}
	return eb
}

// Context attaches a key/value pair. Later values replace earlier ones.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.ee.context == nil {
		eb.ee.context = make(map[string]any, 2)
	}
	eb.ee.context[key] = value
	return eb
}

// Build finalizes the error and hands it to the telemetry reporter, if one is installed.
// An uncategorized error inherits the category of the EnhancedError it wraps.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.ee.Err,
		Category:  eb.ee.Category,
		Priority:  eb.ee.Priority,
		Timestamp: time.Now(),
		component: eb.ee.component,
		context:   eb.ee.context,
	}
	if ee.component == "" {
		ee.component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
		var inner *EnhancedError
		if stderrors.As(ee.Err, &inner) && inner.Category != "" {
			ee.Category = inner.Category
		}
	}

	reportToTelemetry(ee)
	return ee
}

// ValidationError is shorthand for an uncomponentized validation failure.
func ValidationError(message string) *EnhancedError {
	return New(stderrors.New(message)).Category(CategoryValidation).Build()
}

// IsCategory reports whether err wraps an EnhancedError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	return stderrors.As(err, &ee) && ee.Category == category
}

func IsValidation(err error) bool { return IsCategory(err, CategoryValidation) }

func IsNotFound(err error) bool { return IsCategory(err, CategoryNotFound) }

// Standard library passthroughs.

func NewStd(text string) error { return stderrors.New(text) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Join(errs ...error) error { return stderrors.Join(errs...) }
