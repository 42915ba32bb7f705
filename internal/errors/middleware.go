package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPErrorsTotal tracks HTTP errors by type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)

// Middleware returns an Echo middleware that handles structured errors.
// It catches errors returned by handlers and converts them to appropriate
// HTTP responses.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// Echo HTTPErrors (e.g. 404 from the router) pass through
			// unchanged so the status code is preserved.
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				HTTPErrorsTotal.WithLabelValues(string(wrapHTTPError(httpErr).Type)).Inc()
				return err
			}

			structuredErr := AsStructuredError(err)
			HTTPErrorsTotal.WithLabelValues(string(structuredErr.Type)).Inc()
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

// logError logs an error with request context.
func logError(c echo.Context, err *Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	switch err.Type {
	case TypeValidation:
		slog.Info("Validation error", attrs...)
	case TypeNotFound:
		slog.Info("Not found", attrs...)
	case TypeUpstream:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Upstream source error", attrs...)
	case TypeStore:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Store error", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	}
}

// wrapHTTPError converts Echo's HTTPError to a structured error for metrics.
func wrapHTTPError(httpErr *echo.HTTPError) *Error {
	message := "internal server error"
	if msg, ok := httpErr.Message.(string); ok {
		message = msg
	}

	var errType ErrorType
	switch httpErr.Code {
	case http.StatusBadRequest:
		errType = TypeValidation
	case http.StatusNotFound:
		errType = TypeNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		errType = TypeUpstream
	default:
		errType = TypeInternal
	}

	err := &Error{Type: errType, Message: message, Context: make(map[string]any)}
	if httpErr.Internal != nil {
		err.Cause = httpErr.Internal
	}
	return err
}
