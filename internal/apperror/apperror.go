// Package apperror defines the error taxonomy shared by services and HTTP handlers.
package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindConflict          Kind = "CONFLICT"
	KindAuth              Kind = "AUTH"
	KindAuthz             Kind = "AUTHZ"
	KindNotFound          Kind = "NOT_FOUND"
	KindDomain            Kind = "DOMAIN"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindInternal          Kind = "INTERNAL"
)

// HTTPStatus maps a kind to the status code the API responds with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindDomain, KindInsufficientStock:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindAuth:
		return fiber.StatusUnauthorized
	case KindAuthz:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// Error is the domain error type. Message is safe to show to API callers,
// Cause is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind, so sentinel
// values like ErrNotFound match any not-found error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrAuth              = &Error{Kind: KindAuth}
	ErrAuthz             = &Error{Kind: KindAuthz}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrDomain            = &Error{Kind: KindDomain}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrInternal          = &Error{Kind: KindInternal}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func Conflict(message string) *Error { return New(KindConflict, message) }

func Auth(message string) *Error { return New(KindAuth, message) }

func Authz(message string) *Error { return New(KindAuthz, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Domain(message string) *Error { return New(KindDomain, message) }

func InsufficientStock(message string) *Error { return New(KindInsufficientStock, message) }

func Internal(message string, cause error) *Error { return Wrap(KindInternal, message, cause) }

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
