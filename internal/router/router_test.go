package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/docx-render/internal/config"
	"github.com/deppfellow/docx-render/internal/handler"
	"github.com/deppfellow/docx-render/internal/lib/docx"
	"github.com/deppfellow/docx-render/internal/lib/docx/docxtest"
	"github.com/deppfellow/docx-render/internal/server"
	"github.com/deppfellow/docx-render/internal/service"
)

func newTestRouter(t *testing.T, mutate func(cfg *config.Config)) *echo.Echo {
	t.Helper()

	cfg := config.Default()
	cfg.Primary.Env = "test"
	if mutate != nil {
		mutate(cfg)
	}

	s, err := server.New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	services, err := service.NewServices(s)
	if err != nil {
		t.Fatalf("service.NewServices() error = %v", err)
	}
	return NewRouter(s, handler.NewHandlers(s, services))
}

func do(t *testing.T, e *echo.Echo, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestHealth(t *testing.T) {
	e := newTestRouter(t, nil)

	before := time.Now().Add(-time.Second)
	rec := do(t, e, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decode(t, rec)
	if body["status"] != "ok" || body["message"] != "Docx renderer service is running" {
		t.Errorf("unexpected body: %v", body)
	}
	ts, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	if err != nil {
		t.Fatalf("timestamp %q: %v", body["timestamp"], err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("timestamp %v is not current", ts)
	}
}

func TestInfo(t *testing.T) {
	e := newTestRouter(t, nil)

	rec := do(t, e, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["service"] != "DOCX Renderer Service" || body["version"] != server.Version {
		t.Errorf("unexpected body: %v", body)
	}
	endpoints := body["endpoints"].(map[string]any)
	if endpoints["health"] != "GET /health" || endpoints["render"] != "POST /render" {
		t.Errorf("unexpected endpoints: %v", endpoints)
	}
}

func TestRender_Success(t *testing.T) {
	e := newTestRouter(t, nil)

	rec := do(t, e, http.MethodPost, "/render", map[string]any{
		"templateBase64": docxtest.Base64(docxtest.ResumeBody()),
		"data": map[string]any{
			"summary_bullets": []string{"one", "two", "three"},
			"skills":          "Go",
			"tools":           "Make",
		},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp handler.RenderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.OutputBase64 == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Metadata.OutputSizeKB <= 0 || resp.Metadata.ProcessingTimeMs < 0 {
		t.Errorf("unexpected metadata: %+v", resp.Metadata)
	}

	raw, err := service.DecodeTemplate(resp.OutputBase64)
	if err != nil {
		t.Fatalf("output is not base64: %v", err)
	}
	doc, err := docx.Open(raw)
	if err != nil {
		t.Fatalf("output is not a document: %v", err)
	}
	xml := string(doc.Entry("word/document.xml").Data)
	for _, want := range []string{"• one", "• two", "• three", "Skills: Go", "Tools: Make"} {
		if !strings.Contains(xml, want) {
			t.Errorf("document lacks %q", want)
		}
	}
}

func TestRender_SameInputSameSize(t *testing.T) {
	e := newTestRouter(t, nil)
	payload := map[string]any{
		"templateBase64": docxtest.Base64(docxtest.ResumeBody()),
		"data":           `{"summary_bullets":["a","b"],"skills":"s","tools":"t"}`,
	}

	var sizes []float64
	for range 2 {
		rec := do(t, e, http.MethodPost, "/render", payload, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp handler.RenderResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		sizes = append(sizes, resp.Metadata.OutputSizeKB)
	}
	if sizes[0] != sizes[1] {
		t.Errorf("sizes differ: %v", sizes)
	}
}

func TestRender_Errors(t *testing.T) {
	valid := docxtest.Base64(docxtest.Paragraph("{{x}}"))

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{
			name:    "missing template",
			body:    map[string]any{"data": map[string]any{"skills": "test"}},
			status:  http.StatusBadRequest,
			message: "Missing required field: templateBase64",
		},
		{
			name:    "missing data",
			body:    map[string]any{"templateBase64": "dGVzdA=="},
			status:  http.StatusBadRequest,
			message: "Missing required field: data",
		},
		{
			name:    "null data",
			body:    `{"templateBase64":"dGVzdA==","data":null}`,
			status:  http.StatusBadRequest,
			message: "Missing required field: data",
		},
		{
			name:    "too small",
			body:    map[string]any{"templateBase64": "dGVzdA==", "data": map[string]any{}},
			status:  http.StatusBadRequest,
			message: "Template appears to be too small or invalid. Decoded size: 4 bytes.",
		},
		{
			name:    "invalid data string",
			body:    map[string]any{"templateBase64": valid, "data": "{oops"},
			status:  http.StatusBadRequest,
			message: "Invalid JSON string in data field: invalid character 'o' looking for beginning of object key string",
		},
		{
			name:    "data of the wrong type",
			body:    map[string]any{"templateBase64": valid, "data": 12},
			status:  http.StatusBadRequest,
			message: "Data field must be either a JSON object or a valid JSON string",
		},
		{
			name:    "false data",
			body:    map[string]any{"templateBase64": valid, "data": false},
			status:  http.StatusBadRequest,
			message: "Missing required field: data",
		},
		{
			name:    "whitespace data string",
			body:    map[string]any{"templateBase64": valid, "data": "   "},
			status:  http.StatusBadRequest,
			message: "Invalid JSON string in data field: EOF",
		},
		{
			name:    "syntax error",
			body:    map[string]any{"templateBase64": docxtest.Base64(docxtest.Paragraph("{{name")), "data": map[string]any{}},
			status:  http.StatusInternalServerError,
			message: `Failed to initialize template engine: Error 1: The tag beginning with "{{name" is unclosed`,
		},
	}

	e := newTestRouter(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, http.MethodPost, "/render", tt.body, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.status, rec.Body.String())
			}
			body := decode(t, rec)
			if body["success"] != false {
				t.Errorf("success = %v", body["success"])
			}
			if body["error"] != tt.message {
				t.Errorf("error = %q, want %q", body["error"], tt.message)
			}
		})
	}
}

func TestRender_TooLarge(t *testing.T) {
	e := newTestRouter(t, func(cfg *config.Config) {
		cfg.Render.MaxTemplateSize = 1024 * 1024
	})

	rec := do(t, e, http.MethodPost, "/render", map[string]any{
		"templateBase64": strings.Repeat("A", 2*1024*1024),
		"data":           map[string]any{},
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	want := "Template too large. Maximum Base64 size is 1MB. Received: 2.00MB"
	if got := decode(t, rec)["error"]; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestRender_BodyLimit(t *testing.T) {
	e := newTestRouter(t, func(cfg *config.Config) {
		cfg.Server.BodyLimit = "1K"
	})

	rec := do(t, e, http.MethodPost, "/render", map[string]any{
		"templateBase64": strings.Repeat("A", 4096),
		"data":           map[string]any{},
	}, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["success"] != false || body["error"] != "Request body too large" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestRenderFile(t *testing.T) {
	e := newTestRouter(t, nil)

	rec := do(t, e, http.MethodPost, "/render/file", map[string]any{
		"templateBase64": docxtest.Base64(docxtest.Paragraph("Hi {{who}}")),
		"data":           map[string]any{"who": "there"},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != handler.DocxContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="rendered.docx"` {
		t.Errorf("content disposition = %q", cd)
	}
	doc, err := docx.Open(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("body is not a document: %v", err)
	}
	if xml := string(doc.Entry("word/document.xml").Data); !strings.Contains(xml, "Hi there") {
		t.Errorf("unexpected document: %s", xml)
	}
}

func TestNotFound(t *testing.T) {
	e := newTestRouter(t, nil)

	rec := do(t, e, http.MethodGet, "/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	want := map[string]any{
		"success": false,
		"error":   "Route not found",
		"code":    "NOT_FOUND",
		"status":  float64(http.StatusNotFound),
	}
	if diff := cmp.Diff(want, decode(t, rec)); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestID(t *testing.T) {
	e := newTestRouter(t, nil)

	rec := do(t, e, http.MethodGet, "/health", nil, map[string]string{"X-Request-ID": "abc-123"})
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("propagated request id = %q", got)
	}

	rec = do(t, e, http.MethodGet, "/health", nil, nil)
	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("generated request id = %q, want a UUID", got)
	}
}

func TestCORSReflectsOrigin(t *testing.T) {
	e := newTestRouter(t, nil)

	rec := do(t, e, http.MethodOptions, "/render", nil, map[string]string{
		"Origin":                        "https://automation.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://automation.example.com" {
		t.Errorf("allow origin = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowCredentials); got != "true" {
		t.Errorf("allow credentials = %q", got)
	}
}

func TestDocs(t *testing.T) {
	e := newTestRouter(t, nil)

	rec := do(t, e, http.MethodGet, "/docs", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/static/openapi.json") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Errorf("docs page must not be cached")
	}

	rec = do(t, e, http.MethodGet, "/static/openapi.json", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("openapi.json status = %d", rec.Code)
	}
	if body := decode(t, rec); body["openapi"] == nil {
		t.Errorf("unexpected openapi.json: %v", body)
	}
}
