package httpcontroller

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/courtside/wintracker/internal/httpcontroller/handlers"
	"github.com/courtside/wintracker/internal/logger"
)

// unmatchedPath labels requests that hit no route so metrics keep a bounded cardinality.
const unmatchedPath = "unmatched"

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.RequestIDMiddleware())
	s.Echo.Use(s.LoggingMiddleware())
	s.Echo.Use(s.CSRFMiddleware())
}

// RequestIDMiddleware tags each request with an ID, echoed in X-Request-ID
// and attached to the request context for log correlation.
func (s *Server) RequestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, requestID string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), requestID)))
		},
	})
}

// submitMiddleware returns the per-route middleware for game submissions:
// a per-IP rate limit when webserver.submitratelimit is positive.
func (s *Server) submitMiddleware() []echo.MiddlewareFunc {
	limit := s.Settings.WebServer.SubmitRateLimit
	if limit <= 0 {
		return nil
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     int(math.Ceil(limit)),
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			s.log.WithContext(c.Request().Context()).Warn("Game submission rate limited",
				logger.String("ip", identifier),
				logger.String("path", c.Request().URL.Path))
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many submissions, try again shortly")
		},
	})}
}

// errorHandler renders errors that escape the handlers, such as unknown routes
// and CSRF rejections: JSON under /api/, the error page elsewhere.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var handleErr error
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		handleErr = s.Handlers.HandleAPIError(err, c)
	} else {
		handleErr = s.Handlers.HandleError(err, c)
	}
	if handleErr != nil {
		s.log.Error("Failed to render error response", logger.Error(handleErr))
		s.Echo.DefaultHTTPErrorHandler(err, c)
	}
}

// LoggingMiddleware logs each completed request and records HTTP metrics.
func (s *Server) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				// commit the error response now so its status is visible below
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			latency := time.Since(start)

			path := c.Path()
			if path == "" {
				path = unmatchedPath
			}

			if s.metrics != nil {
				s.metrics.RecordHTTPRequest(req.Method, path, res.Status, latency.Seconds())
				s.metrics.RecordHTTPResponseSize(req.Method, path, res.Size)
				switch {
				case res.Status >= http.StatusInternalServerError:
					s.metrics.RecordHTTPRequestError(req.Method, path, "server_error")
				case res.Status >= http.StatusBadRequest:
					s.metrics.RecordHTTPRequestError(req.Method, path, "client_error")
				}
			}

			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("path", req.URL.Path),
				logger.Int("status", res.Status),
				logger.String("ip", c.RealIP()),
				logger.Duration("latency", latency),
				logger.Int64("bytes_out", res.Size),
			}
			reqLog := s.log.WithContext(req.Context())
			switch {
			case res.Status >= http.StatusInternalServerError:
				reqLog.Error("HTTP request", fields...)
			case res.Status >= http.StatusBadRequest:
				reqLog.Warn("HTTP request", fields...)
			default:
				reqLog.Debug("HTTP request", fields...)
			}

			return nil
		}
	}
}

// CSRFMiddleware protects the HTML form. The JSON API and the health check
// are skipped; the API only accepts application/json bodies instead.
func (s *Server) CSRFMiddleware() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		CookieMaxAge:   int((12 * time.Hour).Seconds()),
		TokenLength:    32,
		ContextKey:     handlers.CSRFContextKey,
		Skipper: func(c echo.Context) bool {
			path := c.Path()
			return strings.HasPrefix(path, "/api/") || path == "/healthz"
		},
		ErrorHandler: func(err error, c echo.Context) error {
			s.log.WithContext(c.Request().Context()).Warn("CSRF token validation failed",
				logger.String("path", c.Request().URL.Path),
				logger.Bool("has_form_token", c.FormValue("_csrf") != ""),
				logger.Error(err))
			return echo.NewHTTPError(http.StatusForbidden, "Invalid CSRF token")
		},
	})
}
