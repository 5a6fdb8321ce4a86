package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound             = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrAuthenticationFailed = errors.New("invalid credentials")
	ErrValidationFailed     = errors.New("validation failed")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrRateLimited          = errors.New("rate limited")
	ErrConfiguration        = errors.New("configuration error")
)

// ValidationError detalla los campos invalidos de un comando.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
