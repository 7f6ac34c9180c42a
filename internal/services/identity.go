// Package services – identity and object authorization.
//
// The catalog does not manage accounts; an upstream token layer resolves the
// caller to an Identity (id plus staff flag) and the HTTP layer injects it.
// This file also implements the per-object ownership policy: safe methods are
// always permitted, mutations only for the recorded owner. Staff role grants
// wider visibility (see BookService scoping) but no mutation bypass here.
package services

import "github.com/booklab/go-library-backend/internal/domain"

// Identity is the resolved caller. The zero value is the anonymous caller.
type Identity struct {
	// ID is the stable identifier of the caller in the external identity
	// system. Empty for anonymous requests.
	ID string
	// Staff marks administrator-role callers; they see the full book set.
	Staff bool
}

// Anonymous is the unauthenticated identity.
var Anonymous = Identity{}

// Authenticated reports whether the identity was resolved to a real caller.
func (i Identity) Authenticated() bool { return i.ID != "" }

// safeMethods is the fixed set of read-only HTTP methods that bypass
// ownership checks.
var safeMethods = map[string]struct{}{
	"GET":     {},
	"HEAD":    {},
	"OPTIONS": {},
}

// IsSafeMethod reports whether method is in the read-only set.
func IsSafeMethod(method string) bool {
	_, ok := safeMethods[method]
	return ok
}

// CanModify reports whether ident may mutate the given book: only the
// recorded owner qualifies. There is deliberately no staff bypass; role-based
// relaxation applies to visibility scoping, not to object mutation.
func CanModify(ident Identity, b *domain.Book) bool {
	if !ident.Authenticated() || b.OwnerID == nil {
		return false
	}
	return *b.OwnerID == ident.ID
}

// ObjectPermitted evaluates the full ownership policy for an HTTP method:
// safe methods are always allowed, everything else requires ownership.
func ObjectPermitted(method string, ident Identity, b *domain.Book) bool {
	if IsSafeMethod(method) {
		return true
	}
	return CanModify(ident, b)
}
