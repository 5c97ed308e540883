// Package handlers serves the tracker page and its JSON API.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/tracker"
)

// Pinger checks that storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all the handler functions and their dependencies
type Handlers struct {
	baseHandler
	Service  *tracker.Service
	DB       Pinger
	Settings *conf.Settings
	now      func() time.Time
}

// HandlerError is a custom error type that includes an HTTP status code and a user-friendly message.
type HandlerError struct {
	Err     error
	Message string
	Code    int
}

// Error implements the error interface for HandlerError.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// baseHandler provides common functionality for all handlers.
type baseHandler struct {
	log logger.Logger
}

// NewHandlerError creates a new HandlerError and logs it.
func (bh *baseHandler) NewHandlerError(err error, message string, code int) *HandlerError {
	handlerErr := &HandlerError{
		Err:     err,
		Message: message,
		Code:    code,
	}
	bh.log.Error(message, logger.Int("code", code), logger.Error(err))
	return handlerErr
}

// Option configures Handlers.
type Option func(*Handlers)

// WithClock replaces the clock used for the form's default date.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) { h.now = now }
}

// New creates a new Handlers instance with the given dependencies.
func New(service *tracker.Service, db Pinger, settings *conf.Settings, log logger.Logger, opts ...Option) *Handlers {
	if log == nil {
		log = logger.Global().Module("http")
	}

	h := &Handlers{
		baseHandler: baseHandler{log: log},
		Service:     service,
		DB:          db,
		Settings:    settings,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

const unexpectedMessage = "An unexpected error occurred"

// toHandlerError classifies err into a status code and a message safe to show.
func toHandlerError(err error) *HandlerError {
	var he *HandlerError
	var echoHTTPError *echo.HTTPError
	var enhancedErr *errors.EnhancedError

	switch {
	case errors.As(err, &he):
		return he
	case errors.As(err, &echoHTTPError):
		return &HandlerError{
			Err:     echoHTTPError,
			Message: fmt.Sprintf("%v", echoHTTPError.Message),
			Code:    echoHTTPError.Code,
		}
	case errors.As(err, &enhancedErr):
		code := mapCategoryToHTTPStatus(enhancedErr.Category)
		message := enhancedErr.Error()
		if code >= http.StatusInternalServerError {
			// storage errors can carry paths and DSNs
			message = unexpectedMessage
		}
		return &HandlerError{Err: enhancedErr, Message: message, Code: code}
	default:
		return &HandlerError{Err: err, Message: unexpectedMessage, Code: http.StatusInternalServerError}
	}
}

// HandleError renders the error page for err.
func (h *Handlers) HandleError(err error, c echo.Context) error {
	he := toHandlerError(err)
	h.log.WithContext(c.Request().Context()).Error("Request failed",
		logger.String("path", c.Path()),
		logger.Int("code", he.Code),
		logger.Error(he.Err))

	if c.Response().Committed {
		return nil
	}

	errorData := struct {
		Code    int
		Title   string
		Message string
		AppName string
	}{
		Code:    he.Code,
		Title:   fmt.Sprintf("%d Error", he.Code),
		Message: he.Message,
		AppName: h.Settings.Main.Name,
	}

	return c.Render(he.Code, "error", errorData)
}

// HandleAPIError writes err as a JSON error body.
func (h *Handlers) HandleAPIError(err error, c echo.Context) error {
	he := toHandlerError(err)
	if he.Code >= http.StatusInternalServerError {
		h.log.WithContext(c.Request().Context()).Error("API request failed",
			logger.String("path", c.Path()),
			logger.Int("code", he.Code),
			logger.Error(he.Err))
	}

	if c.Response().Committed {
		return nil
	}
	return c.JSON(he.Code, map[string]string{"error": he.Message})
}

// mapCategoryToHTTPStatus maps error categories to appropriate HTTP status codes
func mapCategoryToHTTPStatus(category errors.ErrorCategory) int {
	switch category {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryNetwork, errors.CategoryMQTTConnection, errors.CategoryMQTTPublish:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithErrorHandling wraps an Echo handler function with HTML error handling.
func (h *Handlers) WithErrorHandling(fn echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := fn(c); err != nil {
			return h.HandleError(err, c)
		}
		return nil
	}
}

// WithAPIErrorHandling is WithErrorHandling for JSON endpoints.
func (h *Handlers) WithAPIErrorHandling(fn echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := fn(c); err != nil {
			return h.HandleAPIError(err, c)
		}
		return nil
	}
}
