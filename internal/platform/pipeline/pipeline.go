// Package pipeline implements the ordered interceptor chain every inbound
// request traverses before domain logic runs:
//
//	CORS → Content-Type → [route match] → Token Auth → Role Authz →
//	Body Decode → Handler → Response Normalize
//
// Each stage either passes the request on or returns a terminal error that
// the global error handler converts into the canonical response envelope.
// No stage runs after a terminal result. CORS and content validation are
// registered pre-routing: preflight requests are answered before the router
// is consulted, and media types are checked against the raw path.
package pipeline

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/token"
)

// Options carries the collaborators the chain stages need.
type Options struct {
	Table    *Table
	Codec    *token.Codec
	Sessions SessionLookup
	Logger   zerolog.Logger
}

// Attach registers the chain on e in its fixed order and installs the
// envelope error handler plus the catch-all that turns unmatched routes
// into the 404 envelope.
func Attach(e *echo.Echo, opts Options) {
	e.Pre(CORS())
	e.Pre(ValidateContentType(opts.Table))
	e.Use(Authenticate(opts.Codec, opts.Sessions, opts.Logger, opts.Table))
	e.Use(Authorize(opts.Table))
	e.Use(DecodeBody())
	e.HTTPErrorHandler = ErrorHandler(opts.Logger)
	e.RouteNotFound("/*", H(func(c echo.Context) (any, error) {
		return nil, nil
	}))
}
