package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Error carries a client-facing message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error { return newError(ErrNotFound, format, args...) }

func Validationf(format string, args ...any) error { return newError(ErrValidation, format, args...) }

func Unauthorizedf(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

func Forbiddenf(format string, args ...any) error { return newError(ErrForbidden, format, args...) }

func Conflictf(format string, args ...any) error { return newError(ErrConflict, format, args...) }
