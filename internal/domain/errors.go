package domain

import (
	"errors"
	"net/http"
)

// Sentinel errors for classification with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrGone         = errors.New("permanently deleted")
)

// HTTPError defines errors that carry their own HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

// ConflictError represents a sibling-name conflict with details about the
// existing resource, so callers can return the existing entity with a 409.
type ConflictError struct {
	Message      string
	ResourceType string // "folder" or "document"
	ResourceID   string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
