package errs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FieldError reports a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries one or more field-level input errors.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validation builds a ValidationError for a single field.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError marks a missing entity, or one not owned by the caller.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func NotFound(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

// StateConflictError marks a transition attempted from a status that does
// not allow it, including lost compare-and-swap races.
type StateConflictError struct {
	Entity   string
	Current  string
	Expected string
}

func (e *StateConflictError) Error() string {
	if e.Current != "" {
		return fmt.Sprintf("%s cannot transition from status %q (expected %q)", e.Entity, e.Current, e.Expected)
	}
	return fmt.Sprintf("%s is not in status %q", e.Entity, e.Expected)
}

func StateConflict(entity, current, expected string) *StateConflictError {
	return &StateConflictError{Entity: entity, Current: current, Expected: expected}
}

// DuplicateError marks a uniqueness violation on a generated code or
// reference. Code generators retry internally and only surface it once
// retries are exhausted.
type DuplicateError struct {
	Entity string
	Value  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Entity, e.Value)
}

func Duplicate(entity, value string) *DuplicateError {
	return &DuplicateError{Entity: entity, Value: value}
}

// StorageError wraps a failed read or commit against the ledger store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func Storage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsUniqueViolation reports whether err is a uniqueness violation coming
// back from the database driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

// HTTPStatus maps a service error onto the response status code used by
// every controller.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		sc *StateConflictError
		de *DuplicateError
	)
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.As(err, &nf):
		return fiber.StatusNotFound
	case errors.As(err, &sc):
		return fiber.StatusConflict
	case errors.As(err, &de):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
