package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/pipeline"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// call runs a handler behind the body decoder, the way it is mounted
// in the real server.
func call(t *testing.T, c echo.Context, fn pipeline.HandlerFunc) error {
	t.Helper()
	return pipeline.DecodeBody()(pipeline.H(fn))(c)
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()
	body := `{"first_name":"Marta","last_name":"Keller","birth_date":"1947-03-12"}`
	req := httptest.NewRequest(http.MethodPost, "/patient", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := call(t, c, h.Create); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["status"] != "success" {
		t.Errorf("status = %v", env["status"])
	}
	data, _ := env["data"].(map[string]any)
	if data["first_name"] != "Marta" {
		t.Errorf("data = %v", data)
	}
}

func TestHandler_CreatePatient_Validation(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/patient", strings.NewReader(`{"first_name":"Marta"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := call(t, c, h.Create); err == nil {
		t.Error("expected error for missing last_name")
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler()
	p, err := h.svc.Create(context.Background(), &CreatePayload{FirstName: "Marta", LastName: "Keller"})
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/patient/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := call(t, c, h.Get); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	data, _ := env["data"].(map[string]any)
	if data["last_name"] != p.LastName {
		t.Errorf("data = %v", data)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/patient/42", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := call(t, c, h.Get); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["message"] != "Endpoint not found" {
		t.Errorf("message = %v", env["message"])
	}
	if env["path"] != "/patient/42" {
		t.Errorf("path = %v", env["path"])
	}
}

func TestHandler_GetPatient_BadID(t *testing.T) {
	h, e := newTestHandler()
	for _, raw := range []string{"abc", "-3", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/patient/"+raw, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(raw)

		err := call(t, c, h.Get)
		perr, ok := err.(*pipeline.Error)
		if !ok {
			t.Fatalf("id %q: expected pipeline error, got %v", raw, err)
		}
		if perr.Code != http.StatusBadRequest {
			t.Errorf("id %q: code = %d", raw, perr.Code)
		}
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, e := newTestHandler()
	for _, name := range []string{"Marta", "Jonas"} {
		if _, err := h.svc.Create(context.Background(), &CreatePayload{FirstName: name, LastName: "Keller"}); err != nil {
			t.Fatalf("seed patient: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/patient", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := call(t, c, h.List); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := decodeEnvelope(t, rec)
	data, _ := env["data"].(map[string]any)
	if data["total"] != float64(2) {
		t.Errorf("total = %v", data["total"])
	}
	items, _ := data["items"].([]any)
	if len(items) != 2 {
		t.Errorf("items = %v", items)
	}
}

func TestHandler_ListPatients_Empty(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/patient", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := call(t, c, h.List); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := decodeEnvelope(t, rec)
	data, _ := env["data"].(map[string]any)
	items, ok := data["items"].([]any)
	if !ok || items == nil {
		t.Errorf("expected empty array, got %v", data["items"])
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	h, e := newTestHandler()
	if _, err := h.svc.Create(context.Background(), &CreatePayload{FirstName: "Marta", LastName: "Keller"}); err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/patient/1", strings.NewReader(`{"phone":"+1-555-0102"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := call(t, c, h.Update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := decodeEnvelope(t, rec)
	data, _ := env["data"].(map[string]any)
	if data["phone"] != "+1-555-0102" {
		t.Errorf("data = %v", data)
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, e := newTestHandler()
	if _, err := h.svc.Create(context.Background(), &CreatePayload{FirstName: "Marta", LastName: "Keller"}); err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/patient/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := call(t, c, h.Delete); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := decodeEnvelope(t, rec)
	data, _ := env["data"].(map[string]any)
	if data["id"] != float64(1) {
		t.Errorf("data = %v", data)
	}
}

func multipartPhoto(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestHandler_UploadPhoto(t *testing.T) {
	h, e := newTestHandler()
	if _, err := h.svc.Create(context.Background(), &CreatePayload{FirstName: "Marta", LastName: "Keller"}); err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	buf, contentType := multipartPhoto(t, "photo", pngBytes())
	req := httptest.NewRequest(http.MethodPost, "/patient/1/upload", buf)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := call(t, c, h.Upload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := decodeEnvelope(t, rec)
	data, _ := env["data"].(map[string]any)
	photo, _ := data["photo"].(string)
	if photo == "" {
		t.Errorf("expected photo object in response, got %v", data)
	}
}

func TestHandler_UploadPhoto_MissingFile(t *testing.T) {
	h, e := newTestHandler()
	if _, err := h.svc.Create(context.Background(), &CreatePayload{FirstName: "Marta", LastName: "Keller"}); err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	buf, contentType := multipartPhoto(t, "document", pngBytes())
	req := httptest.NewRequest(http.MethodPost, "/patient/1/upload", buf)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := call(t, c, h.Upload)
	perr, ok := err.(*pipeline.Error)
	if !ok {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if perr.Code != http.StatusBadRequest {
		t.Errorf("code = %d", perr.Code)
	}
}

func TestHandler_Photo_Streams(t *testing.T) {
	h, e := newTestHandler()
	p, err := h.svc.Create(context.Background(), &CreatePayload{FirstName: "Marta", LastName: "Keller"})
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	if _, err := h.svc.AttachPhoto(context.Background(), p.ID, bytes.NewReader(pngBytes())); err != nil {
		t.Fatalf("attach photo: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/patient/1/photo", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := call(t, c, h.Photo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "image/png" {
		t.Errorf("content type = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngBytes()) {
		t.Error("streamed bytes do not match stored photo")
	}
}
