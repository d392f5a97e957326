package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Body is the JSON error envelope returned to clients.
type Body struct {
	Error     Kind   `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HTTPErrorHandler renders classified errors and echo.HTTPErrors as Body.
// Unclassified errors are logged and reported as a generic 500.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := render(err)
		if status >= http.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("request_id", requestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}
		body.RequestID = requestID(c)

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}

func render(err error) (int, Body) {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Kind == KindInternal {
			return http.StatusInternalServerError, Body{Error: KindInternal, Message: ErrInternal.Message}
		}
		return ae.StatusCode(), Body{Error: ae.Kind, Message: ae.Message}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, Body{Error: kindForStatus(he.Code), Message: msg}
	}

	return http.StatusInternalServerError, Body{Error: KindInternal, Message: ErrInternal.Message}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	default:
		if code < http.StatusInternalServerError {
			return Kind(http.StatusText(code))
		}
		return KindInternal
	}
}

func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok {
		return id
	}
	return ""
}
