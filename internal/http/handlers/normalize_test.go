package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/booklab/go-library-backend/internal/services"
)

func runNormalize(t *testing.T, err error) (int, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)

	normalize(c, err)

	var env envelope
	if e := json.Unmarshal(w.Body.Bytes(), &env); e != nil {
		t.Fatalf("decode: %v", e)
	}
	return w.Code, env
}

func TestNormalize_BusinessErrorKeepsIdentity(t *testing.T) {
	code, env := runNormalize(t, services.ErrHighlightedBookCannotBeDeleted)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
	if *env.ErrorCode != "HIGHLIGHTED_BOOK_CANNOT_BE_DELETED" || env.Message != "高亮图书不可删除" {
		t.Fatalf("envelope = %+v", env)
	}

	// A 403-status business error keeps its status too.
	code, env = runNormalize(t, services.ErrAuthorBanned)
	if code != http.StatusForbidden || *env.ErrorCode != "AUTHOR_BANNED" {
		t.Fatalf("status = %d envelope = %+v", code, env)
	}

	// Derived messages survive normalization.
	code, env = runNormalize(t, services.ErrBookOutOfStock.WithMessage("custom"))
	if code != http.StatusBadRequest || env.Message != "custom" {
		t.Fatalf("derived = %d %+v", code, env)
	}
}

func TestNormalize_ValidationError(t *testing.T) {
	ve := &services.ValidationError{}
	ve.Add("title", "This field is required.")
	ve.Add(services.NonFieldErrors, "吴承恩的书不能高于100元")

	code, env := runNormalize(t, ve)
	if code != http.StatusBadRequest || env.Message != "请求失败" || *env.ErrorCode != ErrCodeBadRequest {
		t.Fatalf("envelope = %+v", env)
	}
	var details map[string][]string
	if err := json.Unmarshal(env.Details, &details); err != nil {
		t.Fatalf("details: %v", err)
	}
	if details["title"][0] != "This field is required." {
		t.Fatalf("details = %v", details)
	}
	if details["non_field_errors"][0] != "吴承恩的书不能高于100元" {
		t.Fatalf("details = %v", details)
	}
}

func TestNormalize_SentinelMapping(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{services.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "Not found."},
		{services.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, "You do not have permission to perform this action."},
		{services.ErrUnauthenticated, http.StatusForbidden, ErrCodeForbidden, "Authentication credentials were not provided."},
	}
	for _, tc := range cases {
		code, env := runNormalize(t, tc.err)
		if code != tc.status || *env.ErrorCode != tc.code || env.Message != tc.message {
			t.Fatalf("%v -> %d %+v", tc.err, code, env)
		}
	}
}

func TestNormalize_UnclassifiedIs500WithFixedMessage(t *testing.T) {
	code, env := runNormalize(t, errors.New("pq: connection reset"))
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d", code)
	}
	if *env.ErrorCode != ErrCodeInternal || env.Message != "服务器内部错误，请稍后重试" {
		t.Fatalf("envelope = %+v", env)
	}
	// The internal detail never reaches the body.
	raw, _ := json.Marshal(env)
	if strings.Contains(string(raw), "connection reset") {
		t.Fatalf("leaked detail: %s", raw)
	}
}
