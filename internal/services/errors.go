// Package services defines the business logic for books, authors, and tags.
// This file centralizes the business-error taxonomy and common service-level
// sentinel errors so they can be consistently returned by service methods and
// translated into envelope responses at the handler layer.
//
// Every business error carries a fixed HTTP status, a stable machine-readable
// code, and a default message. Raising one anywhere below the handler layer
// must propagate to the exception normalizer untouched.
package services

import "errors"

// Stable machine-readable business error codes. Clients branch on these.
const (
	CodeBookBusinessError              = "BOOK_BUSINESS_ERROR"
	CodeBookOutOfStock                 = "BOOK_OUT_OF_STOCK"
	CodeBookAlreadyBorrowed            = "BOOK_ALREADY_BORROWED"
	CodeAuthorBanned                   = "AUTHOR_BANNED"
	CodeHighlightedBookCannotBeDeleted = "HIGHLIGHTED_BOOK_CANNOT_BE_DELETED"
	CodeCoverImageTooLarge             = "COVER_IMAGE_TOO_LARGE"
)

// BusinessError is a domain-rule violation with a fixed HTTP status, stable
// code, and default message. It is immutable; use WithMessage to derive a
// variant carrying a more specific message.
type BusinessError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *BusinessError) Error() string { return e.Message }

// WithMessage returns a copy of the error carrying msg instead of the
// default message. Status and code are preserved.
func (e *BusinessError) WithMessage(msg string) *BusinessError {
	return &BusinessError{Status: e.Status, Code: e.Code, Message: msg}
}

// The closed set of declared business error kinds.
var (
	// ErrBookBusiness is the generic catch-all for book domain violations.
	ErrBookBusiness = &BusinessError{Status: 400, Code: CodeBookBusinessError, Message: "图书业务错误"}

	// ErrBookOutOfStock is raised when a borrow request exceeds stock.
	ErrBookOutOfStock = &BusinessError{Status: 400, Code: CodeBookOutOfStock, Message: "图书库存不足，无法借阅"}

	// ErrBookAlreadyBorrowed is raised when a book is borrowed twice.
	ErrBookAlreadyBorrowed = &BusinessError{Status: 400, Code: CodeBookAlreadyBorrowed, Message: "该书已被借出，无法重复借阅"}

	// ErrAuthorBanned is raised when publishing on behalf of a banned author.
	ErrAuthorBanned = &BusinessError{Status: 403, Code: CodeAuthorBanned, Message: "该作者已被封禁，不能发布新书"}

	// ErrHighlightedBookCannotBeDeleted vetoes deletion of highlighted books.
	ErrHighlightedBookCannotBeDeleted = &BusinessError{Status: 400, Code: CodeHighlightedBookCannotBeDeleted, Message: "高亮图书不可删除"}

	// ErrCoverImageTooLarge rejects cover uploads above the configured cap.
	ErrCoverImageTooLarge = &BusinessError{Status: 400, Code: CodeCoverImageTooLarge, Message: "封面图片不能超过5MB"}
)

// ValidationError carries field-keyed validation failures. The "non_field_errors"
// key holds object-level failures that do not belong to a single field.
type ValidationError struct {
	Fields map[string][]string
}

// NonFieldErrors is the details key for object-level validation failures.
const NonFieldErrors = "non_field_errors"

// Error implements the error interface with a compact summary.
func (e *ValidationError) Error() string {
	for field, msgs := range e.Fields {
		if len(msgs) > 0 {
			return field + ": " + msgs[0]
		}
	}
	return "validation failed"
}

// Add appends a message under field, allocating the map on first use.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// HasErrors reports whether any field accumulated a failure.
func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// fieldError builds a single-field ValidationError.
func fieldError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}

// Generic service-level sentinel errors.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden indicates the caller is not permitted to perform the
	// operation on this resource (ownership check failed).
	ErrForbidden = errors.New("permission denied")

	// ErrUnauthenticated indicates the operation requires a resolved identity.
	ErrUnauthenticated = errors.New("authentication required")
)
