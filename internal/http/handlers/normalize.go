// Package handlers – exception normalization.
//
// normalize() is the single chokepoint that converts any failure raised
// during request processing into the uniform error envelope. Handlers never
// translate service errors themselves; they pass whatever comes back here so
// classification stays in one place:
//
//   - Declared business errors keep their own status, code, and message.
//   - Validation failures become 400 BAD_REQUEST with field-keyed details.
//   - Known framework-classifiable failures (not-found, permission denied,
//     missing credentials) map to their status-derived codes with the
//     standard generic messages.
//   - Everything else is an unclassified fault: logged at error severity with
//     full context, surfaced as a fixed 500 without internal detail.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/booklab/go-library-backend/internal/http/middleware"
	"github.com/booklab/go-library-backend/internal/services"
)

// Generic messages for framework-classifiable failures.
const (
	msgNotFound         = "Not found."
	msgPermissionDenied = "You do not have permission to perform this action."
	msgNoCredentials    = "Authentication credentials were not provided."
)

// normalize writes the envelope for err and aborts the request.
func normalize(c *gin.Context, err error) {
	var be *services.BusinessError
	if errors.As(err, &be) {
		fail(c, be.Status, be.Code, be.Message, nil)
		return
	}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgRequestFailed, ve.Fields)
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgNotFound, nil)
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, msgPermissionDenied, nil)
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusForbidden, ErrCodeForbidden, msgNoCredentials, nil)
	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("unhandled exception")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, nil)
	}
}
