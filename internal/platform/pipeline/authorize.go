package pipeline

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Authorize enforces the route's required tier against the authenticated
// actor. Lower tier values carry more privilege, so access is granted when
// actor tier <= required tier; equality is sufficient. Public and unmatched
// routes pass through untouched.
func Authorize(table *Table) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}
			route := c.Path()
			if route == "" || route == routeNotFound || table.Public(route) {
				return next(c)
			}

			actor, ok := ActorFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
			}
			if actor.Tier > table.RequiredTier(route) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}
