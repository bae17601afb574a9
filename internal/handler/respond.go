package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jackyYam/mybooklist/internal/apperr"
)

// storeTimeout bounds every repository call made while serving a request.
const storeTimeout = 5 * time.Second

func storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// writeError maps err to a JSON response.  Taxonomy errors use their code's
// status; anything else is logged and reported as a generic 400.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return writeAppError(c, appErr.HTTPStatus(), appErr)
	}
	log.Error("request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err)
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "request failed"})
}

// writeAppError writes e with an explicit status, for endpoints whose
// documented status differs from the code's default.
func writeAppError(c echo.Context, status int, e *apperr.Error) error {
	body := echo.Map{"error": e.Message}
	if len(e.Fields) > 0 {
		body["fields"] = e.Fields
	}
	return c.JSON(status, body)
}

// normalizer is implemented by request bodies that tidy their fields
// before validation.
type normalizer interface {
	normalize()
}

// bindAndValidate decodes the JSON body into dst, normalizes it when dst
// supports that, and runs the registered validator.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid body")
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(dst)
}

// ErrorHandler renders errors that escape the handlers (unknown routes,
// wrong methods, recovered panics) in the same {"error": ...} shape.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusBadRequest
		msg := "request failed"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			log.Error("unhandled error", "path", c.Path(), "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"error": msg})
		}
		if err != nil {
			log.Warn("write error response", "error", err)
		}
	}
}
