// Package apperr defines the error taxonomy shared by the storage service and
// the HTTP layer. Each failure class is a concrete type so callers can branch
// with errors.As, and Status maps any error onto its HTTP status code.
//
//	var nf *apperr.NotFoundError
//	if errors.As(err, &nf) { ... }
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FieldError is one field-level validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when an inbound payload fails schema checks.
// Fields lists every failing field, not only the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validation builds a ValidationError from a list of field errors.
func Validation(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// NotFoundError means the addressed record does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id uint) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConstraintError is a uniqueness or foreign-key violation on write.
type ConstraintError struct {
	Message string
	Err     error
}

func (e *ConstraintError) Error() string { return e.Message }
func (e *ConstraintError) Unwrap() error { return e.Err }

// Constraint builds a ConstraintError with a client-safe message.
func Constraint(message string, cause error) *ConstraintError {
	return &ConstraintError{Message: message, Err: cause}
}

// AuthenticationError is a missing or invalid session, or bad credentials.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "Unauthorized"
	}
	return e.Message
}

// ErrUnauthenticated is the default authentication failure.
var ErrUnauthenticated = &AuthenticationError{}

// ForbiddenError is an authenticated user lacking the required role.
type ForbiddenError struct{}

func (e *ForbiddenError) Error() string { return "Forbidden" }

// StoreUnavailableError wraps connectivity or timeout failures of the
// relational store. The wrapped cause is for logs only.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Status maps an error to the HTTP status code the route layer responds with.
func Status(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConstraintError
		ae *AuthenticationError
		fe *ForbiddenError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &fe):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show a client. Store failures and
// unknown errors collapse to a generic text.
func PublicMessage(err error) string {
	switch Status(err) {
	case http.StatusBadRequest:
		return "Validation failed"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return err.Error()
	}
}
