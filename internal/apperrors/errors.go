// Package apperrors defines the error taxonomy shared by services, middleware
// and handlers. Every error carries a Kind so the HTTP layer can choose a
// status code, and a Message that is safe to show to clients. The optional
// cause is kept for server-side logs only.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindForbidden
	KindNotFound
	KindUnauthenticated
	KindTokenExpired
	KindInvalidToken
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindTokenExpired:
		return "token_expired"
	case KindInvalidToken:
		return "invalid_token"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is checks. An *Error matches the sentinel of its kind.
var (
	ErrInternal        = &Error{Kind: KindInternal, Message: "internal server error"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict"}
	ErrAuthentication  = &Error{Kind: KindAuthentication, Message: "authentication failed"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "Access denied: insufficient role"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "Missing or invalid Authorization header"}
	ErrTokenExpired    = &Error{Kind: KindTokenExpired, Message: "Token expired"}
	ErrInvalidToken    = &Error{Kind: KindInvalidToken, Message: "Invalid token"}
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the concrete application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so that errors.Is(err, ErrConflict) holds for any
// conflict error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind with a client-safe message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap builds an error of the given kind that keeps cause for logging.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// Validation builds a validation error with per-field details.
func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Internal wraps an unexpected failure. The message never reaches clients.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: cause}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from err, wrapping foreign errors as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
