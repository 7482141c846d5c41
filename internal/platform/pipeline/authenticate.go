package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/session"
	"github.com/caretrack/caretrack/internal/platform/token"
)

// routeNotFound is the catch-all pattern echo reports for requests that
// matched no registered route. Authentication defers those to the 404
// produced further down the chain.
const routeNotFound = "/*"

// SessionLookup resolves the current session for a subject. The pipeline
// only ever reads sessions; login and renewal write through the session
// store directly.
type SessionLookup interface {
	Get(ctx context.Context, userID int64) (*session.Session, error)
}

// credential extracts the bearer token. The Authorization header wins, with
// or without a Bearer prefix; the X-Auth-Token header is the documented
// fallback for clients that cannot set Authorization.
func credential(h http.Header) string {
	auth := strings.TrimSpace(h.Get("Authorization"))
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return auth
	}
	return strings.TrimSpace(h.Get("X-Auth-Token"))
}

// Authenticate validates the bearer credential on protected routes and
// attaches the resulting Actor to the request context.
//
// A token is accepted only when it decodes with a valid signature, has not
// expired, and exactly equals the current token stored in the subject's
// session. The equality check is the revocation mechanism: rotating or
// clearing the stored value invalidates every previously issued token.
// Store faults surface as 401 with a generic message; the full cause is
// logged server-side and never disclosed.
func Authenticate(codec *token.Codec, sessions SessionLookup, logger zerolog.Logger, table *Table) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}
			route := c.Path()
			if route == "" || route == routeNotFound || table.Public(route) {
				return next(c)
			}

			raw := credential(c.Request().Header)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
			}

			claims, err := codec.Parse(raw)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authentication token")
			}

			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authentication token")
			}

			sess, err := sessions.Get(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, session.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Session is invalid or has been revoked")
				}
				logger.Error().Err(err).
					Int64("user_id", userID).
					Str("path", c.Request().URL.Path).
					Msg("session lookup failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication error")
			}
			if sess.Token != raw {
				return echo.NewHTTPError(http.StatusUnauthorized, "Session is invalid or has been revoked")
			}

			actor := Actor{ID: userID, Tier: Tier(claims.Tier)}
			ctx := WithActor(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
