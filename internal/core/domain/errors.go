package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
	ErrInternalServer     = errors.New("internal server error")
)

// FieldErrors carries per-field messages for a failed validation. It unwraps
// to ErrValidation so callers can match the whole class with errors.Is.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	return ErrValidation.Error()
}

func (e *FieldErrors) Unwrap() error {
	return ErrValidation
}

// NewFieldErrors builds a FieldErrors from a field->message map.
func NewFieldErrors(fields map[string]string) *FieldErrors {
	return &FieldErrors{Fields: fields}
}

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyTaken = errors.New("email already taken")
)

// Transaction errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
)
