package pipeline

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/session"
	"github.com/caretrack/caretrack/internal/platform/token"
)

// newTestServer assembles a full chain on a real echo instance with a few
// representative routes behind it.
func newTestServer(t *testing.T) (*echo.Echo, *token.Codec, *mockSessions) {
	t.Helper()
	codec := token.NewCodec(testSecret, time.Hour)
	sessions := &mockSessions{sessions: map[int64]*session.Session{}}

	e := echo.New()
	Attach(e, Options{
		Table:    DefaultTable(),
		Codec:    codec,
		Sessions: sessions,
		Logger:   zerolog.Nop(),
	})

	e.GET("/tools", H(func(c echo.Context) (any, error) {
		return map[string]any{"roles": []string{"administrator", "manager", "caregiver"}}, nil
	}))
	e.POST("/patient", H(func(c echo.Context) (any, error) {
		return Created(Body(c)), nil
	}))
	e.GET("/user", H(func(c echo.Context) (any, error) {
		return []string{}, nil
	}))
	e.GET("/patient/:id", H(func(c echo.Context) (any, error) {
		actor, _ := ActorFromContext(c.Request().Context())
		return map[string]any{"id": c.Param("id"), "seen_by": actor.ID}, nil
	}))
	return e, codec, sessions
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestChainMissingAuthorization(t *testing.T) {
	e, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/patient", strings.NewReader(`{"first_name":"Ann"}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	rec := do(e, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	m := checkEnvelope(t, rec)
	if m["status"] != "error" || m["message"] != "Authorization header is required" {
		t.Errorf("unexpected envelope: %v", m)
	}
}

func TestChainPublicRouteNeedsNoToken(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := do(e, httptest.NewRequest(http.MethodGet, "/tools", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := checkEnvelope(t, rec)
	if m["status"] != "success" {
		t.Errorf("status = %v", m["status"])
	}
	if _, ok := m["data"]; !ok {
		t.Error("data missing from success envelope")
	}
}

func TestChainPreflightBeforeRouting(t *testing.T) {
	e, _, _ := newTestServer(t)

	for _, path := range []string{"/patient", "/no/such/route"} {
		rec := do(e, httptest.NewRequest(http.MethodOptions, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("OPTIONS %s: expected 200, got %d", path, rec.Code)
		}
		if got := rec.Body.String(); strings.TrimSpace(got) != "{}" {
			t.Errorf("OPTIONS %s: expected empty JSON body, got %q", path, got)
		}
		if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
			t.Errorf("OPTIONS %s: Max-Age = %q", path, got)
		}
	}
}

func TestChainUnmatchedRoute(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := do(e, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	m := checkEnvelope(t, rec)
	if m["message"] != "Endpoint not found" {
		t.Errorf("message = %v", m["message"])
	}
	if m["path"] != "/no/such/route" {
		t.Errorf("path = %v", m["path"])
	}
}

// Content negotiation happens before route matching, so an unmatched POST
// without a Content-Type is 415, not 404.
func TestChainContentTypeBeforeRouting(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := do(e, httptest.NewRequest(http.MethodPost, "/no/such/route", nil))

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
	checkEnvelope(t, rec)
}

func TestChainAuthenticatedRequest(t *testing.T) {
	e, codec, sessions := newTestServer(t)
	raw := issueSession(t, codec, sessions, 42, TierCaregiver)

	req := httptest.NewRequest(http.MethodGet, "/patient/5", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := do(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	m := checkEnvelope(t, rec)
	data := m["data"].(map[string]any)
	if data["seen_by"].(float64) != 42 {
		t.Errorf("handler did not see the authenticated actor: %v", data)
	}
}

func TestChainCaregiverBlockedFromManagerRoute(t *testing.T) {
	e, codec, sessions := newTestServer(t)
	raw := issueSession(t, codec, sessions, 7, TierCaregiver)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := do(e, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	m := checkEnvelope(t, rec)
	if m["message"] != "insufficient permissions" {
		t.Errorf("message = %v", m["message"])
	}
}

func TestChainManagerAllowedOnManagerRoute(t *testing.T) {
	e, codec, sessions := newTestServer(t)
	raw := issueSession(t, codec, sessions, 7, TierManager)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := do(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	m := checkEnvelope(t, rec)
	if _, ok := m["data"]; !ok {
		t.Error("data missing from success envelope")
	}
}

func TestChainMalformedJSONAfterAuth(t *testing.T) {
	e, codec, sessions := newTestServer(t)
	raw := issueSession(t, codec, sessions, 42, TierCaregiver)

	req := httptest.NewRequest(http.MethodPost, "/patient", strings.NewReader(`{"a":}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := do(e, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	m := checkEnvelope(t, rec)
	msg, _ := m["message"].(string)
	if !strings.Contains(msg, "Invalid JSON payload") {
		t.Errorf("message = %q", msg)
	}
}

func TestChainBodyReachesHandler(t *testing.T) {
	e, codec, sessions := newTestServer(t)
	raw := issueSession(t, codec, sessions, 42, TierCaregiver)

	req := httptest.NewRequest(http.MethodPost, "/patient", strings.NewReader(`{"a":1,"b":"x"}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := do(e, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	m := checkEnvelope(t, rec)
	data := m["data"].(map[string]any)
	if data["a"].(float64) != 1 || data["b"] != "x" {
		t.Errorf("decoded body did not round-trip: %v", data)
	}
}

func TestChainRevokedTokenEndToEnd(t *testing.T) {
	e, codec, sessions := newTestServer(t)
	old := issueSession(t, codec, sessions, 42, TierCaregiver)
	issueSession(t, codec, sessions, 42, TierCaregiver)

	req := httptest.NewRequest(http.MethodGet, "/patient/5", nil)
	req.Header.Set("Authorization", "Bearer "+old)
	rec := do(e, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	checkEnvelope(t, rec)
}

func TestChainSecurityHeadersOnEveryBranch(t *testing.T) {
	e, _, _ := newTestServer(t)

	reqs := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/tools", nil),
		httptest.NewRequest(http.MethodGet, "/no/such/route", nil),
		httptest.NewRequest(http.MethodGet, "/patient/5", nil), // 401
	}
	for _, req := range reqs {
		rec := do(e, req)
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("%s: X-Content-Type-Options = %q", req.URL.Path, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s: Access-Control-Allow-Origin = %q", req.URL.Path, got)
		}
	}
}
