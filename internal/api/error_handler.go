package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
)

// NewErrorHandler maps domain errors onto HTTP statuses so handlers can
// return service errors unwrapped.
func NewErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		case errors.Is(err, domain.ErrReportNotFound),
			errors.Is(err, domain.ErrUserNotFound):
			status = http.StatusNotFound
			message = err.Error()
		case errors.Is(err, domain.ErrUserExists):
			status = http.StatusConflict
			message = err.Error()
		case errors.Is(err, domain.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			message = err.Error()
		case errors.Is(err, domain.ErrForbidden):
			status = http.StatusForbidden
			message = err.Error()
		case errors.Is(err, domain.ErrUnsortedRecords),
			errors.Is(err, domain.ErrMissingField):
			status = http.StatusUnprocessableEntity
			message = err.Error()
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}

		if err := c.JSON(status, map[string]string{"error": message}); err != nil {
			logger.Error().Err(err).Msg("failed to write error response")
		}
	}
}
