package pipeline

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Auth-Token, X-Requested-With"
	corsMaxAge       = "86400"
)

func applyCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Allow-Credentials", "true")
}

// CORS is the first stage of the chain. Preflight requests are answered
// immediately with an empty JSON body and never reach the router; all other
// requests get the cross-origin headers attached to the in-flight response
// and continue. This stage cannot fail.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			applyCORSHeaders(h)
			if c.Request().Method == http.MethodOptions {
				h.Set("Access-Control-Max-Age", corsMaxAge)
				return c.JSON(http.StatusOK, map[string]any{})
			}
			return next(c)
		}
	}
}
