package models

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the repositories and services
// wraps exactly one of these, so callers classify with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrTransient  = errors.New("temporarily unavailable")
	ErrForbidden  = errors.New("forbidden")

	// Both are validation failures as far as callers are concerned.
	ErrUnauthenticated   = fmt.Errorf("not authenticated: %w", ErrValidation)
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", ErrValidation)
)

// Error carries a human-readable message on top of one of the category sentinels.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports that an id has no matching record.
func NotFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

// Validation reports malformed input.
func Validation(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

// Transient reports a retrieval failure the caller may retry.
func Transient(format string, args ...interface{}) error {
	return newError(ErrTransient, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

func Unauthenticated(format string, args ...interface{}) error {
	return newError(ErrUnauthenticated, format, args...)
}

func InvalidTransition(format string, args ...interface{}) error {
	return newError(ErrInvalidTransition, format, args...)
}
