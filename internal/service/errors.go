package service

import (
	"errors"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrAdminNotFound    = errors.New("admin not found")
	ErrWrongPassword    = errors.New("wrong password")
	ErrInvalidHash      = errors.New("stored password hash is invalid")
	ErrPropertyNotFound = errors.New("property not found")
	ErrRateLimited      = errors.New("rate limited")
)

// ValidationError lista los campos faltantes o invalidos de una solicitud.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(message string, fields []string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}
