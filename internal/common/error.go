// Package common defines sentinel errors shared across the task service.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors wrap ErrValidation with a field-specific reason.
	ErrValidation = errors.New("validation error")

	// Auth errors. ErrInvalidCredentials is the same for an unknown email
	// and a wrong password, so callers cannot probe which emails exist.
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("unable to login")
)
