package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error so transport layers can map it uniformly.
type Kind string

const (
	// KindNotFound means a referenced user/chat/comment is absent or soft-deleted.
	KindNotFound Kind = "not_found"
	// KindInvalidOperation means a business precondition is unmet (self-targeting
	// action, duplicate friend request, missing pending request, ...).
	KindInvalidOperation Kind = "invalid_operation"
	// KindConflict means a transaction aborted due to a concurrent mutation.
	// Conflicts are safe to retry.
	KindConflict Kind = "conflict"
	// KindUnauthorized means the caller presented no valid identity.
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden means the identity is valid but not allowed to act.
	KindForbidden Kind = "forbidden"
	// KindInternal means a storage or dispatch failure unrelated to business rules.
	KindInternal Kind = "internal"
)

// Error is the domain error carried across repository and handler boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// InvalidOperation builds a precondition-failure error.
func InvalidOperation(message string) *Error {
	return &Error{Kind: KindInvalidOperation, Message: message}
}

// Conflict builds a retry-safe transaction-abort error.
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// Unauthorized builds an identity-missing error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden builds a permission error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Internal wraps an unexpected storage or dispatch failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the Kind of err, unwrapping as needed. Unknown errors are
// treated as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a domain error to the status code surfaced to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidOperation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
