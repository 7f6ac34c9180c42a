// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller identity. Token issuance and refresh are
// owned by an external service; this layer only verifies and decodes the
// bearer token it receives, extracting the subject id and the staff flag.
//
// Resolution order:
//  1. "Authorization: Bearer <jwt>", verified with the shared HMAC secret;
//     claims used: "sub" (identity id) and "staff" (role flag). An invalid
//     or expired token aborts with 401 rather than downgrading to anonymous.
//  2. "X-User-ID" / "X-User-Staff" headers, trusted directly and intended for
//     tests and local demos behind no gateway.
//  3. Neither present: the request proceeds anonymously; visibility scoping
//     downstream decides what an anonymous caller can see.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// userIDKey is the Gin context key holding the resolved identity id.
	userIDKey = "userID"
	// staffKey is the Gin context key holding the staff/administrator flag.
	staffKey = "isStaff"
)

// identityClaims is the expected shape of the externally issued token.
type identityClaims struct {
	Staff bool `json:"staff"`
	jwt.RegisteredClaims
}

// Identity returns a middleware that resolves the caller and stores the
// result in the Gin context under "userID" and "isStaff".
func Identity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			claims := &identityClaims{}
			tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !tok.Valid || claims.Subject == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success":    false,
					"error_code": "UNAUTHORIZED",
					"message":    "Given token not valid for any token type.",
					"details":    gin.H{},
				})
				return
			}
			c.Set(userIDKey, claims.Subject)
			c.Set(staffKey, claims.Staff)
			c.Next()
			return
		}

		if uid := strings.TrimSpace(c.GetHeader("X-User-ID")); uid != "" {
			c.Set(userIDKey, uid)
			c.Set(staffKey, strings.EqualFold(c.GetHeader("X-User-Staff"), "true"))
		}
		c.Next()
	}
}

// UserID returns the resolved identity id, empty for anonymous requests.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsStaff reports whether the resolved identity carries the staff role.
func IsStaff(c *gin.Context) bool {
	if v, ok := c.Get(staffKey); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
