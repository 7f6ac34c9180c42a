// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the uniform response envelope used across all endpoints.
// Every response body, success or failure, has the same outer shape so
// clients can branch on `success` and `error_code` without inspecting HTTP
// status codes first.
//
// Conventions:
//   - Success envelopes carry `data` (an empty object when there is none)
//     and a null `error_code`.
//   - Error envelopes carry a stable `error_code` (see errors.go constants)
//     and a `details` object, non-empty only for field-level validation
//     failures.
//   - fail() centralizes error formatting and ensures 5xx responses are
//     logged with request context for observability.
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{ "success": true, "error_code": null, "message": "创建成功", "data": { "id": 7, ... } }
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{ "success": false, "error_code": "HIGHLIGHTED_BOOK_CANNOT_BE_DELETED",
//	  "message": "高亮图书不可删除", "details": {} }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/booklab/go-library-backend/internal/http/middleware"
)

// Default envelope messages.
const (
	msgOK      = "操作成功"
	msgCreated = "创建成功"
	msgDeleted = "删除成功"
	// msgRequestFailed is the generic fallback when a failure carries no
	// more specific message.
	msgRequestFailed = "请求失败"
	// msgInternal never leaks internal detail to the caller.
	msgInternal = "服务器内部错误，请稍后重试"
)

// Envelope is the uniform JSON wrapper around every response.
type Envelope struct {
	Success   bool    `json:"success"`
	ErrorCode *string `json:"error_code"`
	Message   string  `json:"message"`
	Data      any     `json:"data,omitempty"`
	Details   any     `json:"details,omitempty"`
}

// SuccessEnvelope builds a success envelope. A nil data becomes an empty
// object so `data` is always present and object-or-array valued.
func SuccessEnvelope(data any, message string) Envelope {
	if data == nil {
		data = gin.H{}
	}
	if message == "" {
		message = msgOK
	}
	return Envelope{Success: true, ErrorCode: nil, Message: message, Data: data}
}

// ErrorEnvelope builds a failure envelope. A nil details becomes an empty
// object so `details` is always present on errors.
func ErrorEnvelope(code, message string, details any) Envelope {
	if details == nil {
		details = gin.H{}
	}
	return Envelope{Success: false, ErrorCode: &code, Message: message, Details: details}
}

// ok writes a success envelope with the given HTTP status.
func ok(c *gin.Context, status int, data any, message string) {
	c.JSON(status, SuccessEnvelope(data, message))
}

// fail aborts the request with an error envelope and logs server-side errors
// using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string, details any) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope(code, msg, details))
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg, nil) }
