package pipeline

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	mimeJSON       = "application/json"
	mimeMultipart  = "multipart/form-data"
	mimeURLEncoded = "application/x-www-form-urlencoded"
)

// primaryContentType returns the media type before any parameters,
// lower-cased and trimmed. "Application/JSON; charset=utf-8" → "application/json".
func primaryContentType(header string) string {
	if i := strings.Index(header, ";"); i >= 0 {
		header = header[:i]
	}
	return strings.ToLower(strings.TrimSpace(header))
}

// ValidateContentType rejects requests whose declared media type does not
// match the shape the path accepts: multipart on upload paths, JSON
// everywhere else. GET and OPTIONS carry no body and are skipped. Upload
// paths are recognized from the policy table's patterns, never from the
// client-declared type.
func ValidateContentType(table *Table) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodOptions:
				return next(c)
			}

			ct := primaryContentType(c.Request().Header.Get(echo.HeaderContentType))
			if ct == "" {
				return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Content-Type header is required")
			}

			expected := mimeJSON
			if table.UploadPath(c.Request().URL.Path) {
				expected = mimeMultipart
			}
			if ct != expected {
				return echo.NewHTTPError(http.StatusUnsupportedMediaType,
					fmt.Sprintf("Content-Type must be %s", expected))
			}
			return next(c)
		}
	}
}
