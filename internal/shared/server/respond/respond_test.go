package respond

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/shared/telemetry"
)

func TestErrorEnvelopeAndLogLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	telemetry.SetOutput(&logs)
	t.Cleanup(func() { telemetry.SetOutput(nil) })

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Error(c, http.StatusNotFound, "not_found", "report not found", map[string]string{"id": "r1"})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "not_found" || body.Error.Message != "report not found" {
		t.Fatalf("unexpected body %+v", body)
	}
	if !strings.Contains(logs.String(), `"level":"warn"`) {
		t.Fatalf("expected client error logged at warn, got %q", logs.String())
	}
}

func TestAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Attachment(c, "resume_analysis_summary.txt", "text/plain; charset=utf-8", []byte("hi"))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename=resume_analysis_summary.txt" {
		t.Fatalf("unexpected disposition %q", got)
	}
	if w.Body.String() != "hi" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}
