package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID_GeneratedAndPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// Generated when absent.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	rid := w.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(rid); err != nil {
		t.Fatalf("generated id %q: %v", rid, err)
	}

	// Reused when supplied.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "client-id-1" {
		t.Fatalf("echoed id = %q", w.Header().Get("X-Request-ID"))
	}
}

func TestLogger_AttachesRequestScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/", func(c *gin.Context) {
		if LoggerFrom(c) == nil {
			t.Fatalf("no logger in context")
		}
		c.String(http.StatusOK, "ok")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?q=1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLoggerFrom_FallbackWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("fallback logger is nil")
	}
}

func TestRecovery_EmitsStandardEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false || body["error_code"] != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("body = %v", body)
	}
	if body["message"] != "服务器内部错误，请稍后重试" {
		t.Fatalf("message = %v", body["message"])
	}
	// The panic value never reaches the client.
	if raw := w.Body.String(); strings.Contains(raw, "kaboom") {
		t.Fatalf("leak: %s", raw)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("short input = %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("disabled = %q", got)
	}
}
