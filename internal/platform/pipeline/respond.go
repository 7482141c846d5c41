package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/validate"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform shape of every JSON response: status and code are
// always present, success responses carry data, error responses carry a
// message and, for unmatched endpoints, the requested path.
type Envelope struct {
	Status  string
	Code    int
	Data    any
	Message any
	Path    string
}

// MarshalJSON keeps the envelope total: data is emitted for success even
// when empty, message for errors even when empty.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	m := map[string]any{"status": e.Status, "code": e.Code}
	if e.Status == StatusError {
		m["message"] = e.Message
		if e.Path != "" {
			m["path"] = e.Path
		}
	} else {
		m["data"] = e.Data
	}
	return json.Marshal(m)
}

// Success wraps a payload in a 200 envelope.
func Success(data any) *Envelope {
	return &Envelope{Status: StatusSuccess, Code: http.StatusOK, Data: data}
}

// Created wraps a payload in a 201 envelope.
func Created(data any) *Envelope {
	return &Envelope{Status: StatusSuccess, Code: http.StatusCreated, Data: data}
}

// Error is a handler-produced failure carrying the HTTP status to transmit
// and a client-safe message. Message may be a string or a field→reason
// mapping; it never contains internal detail.
type Error struct {
	Code    int
	Message any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v", e.Message)
}

func NewError(code int, message any) *Error {
	return &Error{Code: code, Message: message}
}

func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// HandlerFunc is the signature of domain handlers running behind the
// pipeline: they return a payload for the normalizer to classify, or an
// error for the global error handler to convert into an envelope.
type HandlerFunc func(c echo.Context) (any, error)

// H adapts a HandlerFunc to echo. Handlers that write the response
// themselves, such as the HTML account-activation flow, commit it and
// return nil; everything else is normalized by Respond.
func H(fn HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		v, err := fn(c)
		if err != nil {
			return err
		}
		if c.Response().Committed {
			return nil
		}
		return Respond(c, v)
	}
}

func applySecurityHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-XSS-Protection", "1; mode=block")
}

// Respond normalizes a handler result, in priority order: an Envelope is
// transmitted with its own code; a mapping that already carries a status key
// is passed through pre-formatted; nil becomes the 404 envelope naming the
// requested path; anything else is wrapped as 200 success. Cross-origin and
// security headers are re-applied on every branch, so no earlier stage's
// header work needs to survive.
func Respond(c echo.Context, v any) error {
	h := c.Response().Header()
	applyCORSHeaders(h)
	applySecurityHeaders(h)

	if v == nil {
		return c.JSON(http.StatusNotFound, &Envelope{
			Status:  StatusError,
			Code:    http.StatusNotFound,
			Message: "Endpoint not found",
			Path:    c.Request().URL.Path,
		})
	}
	if env, ok := v.(*Envelope); ok {
		if env.Code == 0 {
			env.Code = http.StatusOK
		}
		return c.JSON(env.Code, env)
	}
	if m, ok := v.(map[string]any); ok {
		if _, ok := m["status"]; ok {
			code := http.StatusOK
			switch n := m["code"].(type) {
			case int:
				code = n
			case float64:
				code = int(n)
			}
			return c.JSON(code, m)
		}
	}
	return c.JSON(http.StatusOK, &Envelope{Status: StatusSuccess, Code: http.StatusOK, Data: v})
}

// ErrorHandler converts every error reaching echo into the canonical
// envelope. Stage failures arrive as *echo.HTTPError with their status and
// message already decided; domain failures arrive as *Error or as
// validation errors; anything else is an unexpected fault, logged with full
// context and reported as a bare 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			logger.Error().Err(err).
				Str("path", c.Request().URL.Path).
				Msg("error after response committed")
			return
		}

		code := http.StatusInternalServerError
		var message any = "Internal server error"

		var (
			pe *Error
			he *echo.HTTPError
			ve validator.ValidationErrors
			fe validate.FieldErrors
		)
		switch {
		case errors.As(err, &pe):
			code = pe.Code
			message = pe.Message
		case errors.As(err, &ve):
			code = http.StatusUnprocessableEntity
			fields := make(map[string]string, len(ve))
			for _, f := range ve {
				fields[f.Field()] = validate.Reason(f)
			}
			message = fields
		case errors.As(err, &fe):
			code = http.StatusUnprocessableEntity
			message = fe
		case errors.As(err, &he):
			code = he.Code
			message = he.Message
		}

		if code >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		h := c.Response().Header()
		applyCORSHeaders(h)
		applySecurityHeaders(h)

		env := &Envelope{Status: StatusError, Code: code, Message: message}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, env)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
