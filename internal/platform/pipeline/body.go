package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

const (
	bodyContextKey  = "pipeline.body"
	filesContextKey = "pipeline.files"
)

// maxJSONDepth bounds nesting of decoded JSON bodies. Deeper payloads are
// rejected before the parser sees them.
const maxJSONDepth = 32

// DecodeBody parses the request payload once into the canonical string-keyed
// mapping and stores it on the request. GET, DELETE and OPTIONS carry no
// body and are skipped. Downstream readers always see a mapping, never nil;
// re-reads return the stored value without re-parsing.
func DecodeBody() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodDelete, http.MethodOptions:
				return next(c)
			}

			var (
				form  map[string]any
				files map[string][]*multipart.FileHeader
				err   error
			)
			switch primaryContentType(c.Request().Header.Get(echo.HeaderContentType)) {
			case mimeJSON:
				form, err = decodeJSON(c.Request().Body)
				if err != nil {
					return decodeError(err, "Invalid JSON payload: ")
				}
			case mimeMultipart:
				form, files, err = decodeMultipart(c)
				if err != nil {
					return decodeError(err, "Invalid multipart payload: ")
				}
			case mimeURLEncoded:
				form, err = decodeURLEncoded(c.Request().Body)
				if err != nil {
					return decodeError(err, "Invalid form payload: ")
				}
			default:
				form = map[string]any{}
			}

			c.Set(bodyContextKey, form)
			if files != nil {
				c.Set(filesContextKey, files)
			}
			return next(c)
		}
	}
}

// decodeError classifies a body read failure. Failures that already carry
// an HTTP status, such as the body-size cap tripping mid-read, keep it;
// everything else is a malformed payload.
func decodeError(err error, prefix string) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, prefix+err.Error())
}

// Body returns the canonical decoded request body. It is never nil; requests
// without a body yield the empty mapping.
func Body(c echo.Context) map[string]any {
	if m, ok := c.Get(bodyContextKey).(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// BindBody decodes the canonical body mapping into a typed value via a JSON
// round-trip. The raw request body is not re-read.
func BindBody(c echo.Context, v any) error {
	raw, err := json.Marshal(Body(c))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Files returns the uploaded parts of a multipart request, keyed by field
// name. Non-multipart requests yield an empty map.
func Files(c echo.Context) map[string][]*multipart.FileHeader {
	if m, ok := c.Get(filesContextKey).(map[string][]*multipart.FileHeader); ok && m != nil {
		return m
	}
	return map[string][]*multipart.FileHeader{}
}

// File returns the first uploaded part for the given field name.
func File(c echo.Context, name string) (*multipart.FileHeader, bool) {
	fhs := Files(c)[name]
	if len(fhs) == 0 {
		return nil, false
	}
	return fhs[0], true
}

func decodeJSON(r io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	if d := jsonDepth(raw); d > maxJSONDepth {
		return nil, fmt.Errorf("nesting exceeds %d levels", maxJSONDepth)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// jsonDepth reports the maximum brace/bracket nesting of raw, ignoring
// structural characters inside string literals. It never fails; malformed
// input is left for the parser to reject.
func jsonDepth(raw []byte) int {
	depth, peak := 0, 0
	inString, escaped := false, false
	for _, b := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > peak {
				peak = depth
			}
		case '}', ']':
			depth--
		}
	}
	return peak
}

func decodeMultipart(c echo.Context) (map[string]any, map[string][]*multipart.FileHeader, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}
	form := make(map[string]any, len(mf.Value))
	for k, vs := range mf.Value {
		if len(vs) == 1 {
			form[k] = vs[0]
		} else {
			form[k] = vs
		}
	}
	return form, mf.File, nil
}

func decodeURLEncoded(r io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	vals, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, err
	}
	form := make(map[string]any, len(vals))
	for k, vs := range vals {
		if len(vs) == 1 {
			form[k] = vs[0]
		} else {
			form[k] = vs
		}
	}
	return form, nil
}
