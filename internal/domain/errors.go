package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates the requested entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a NotFoundError for the given entity and identifier.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ForbiddenError indicates the caller is not authorized to act on the entity.
type ForbiddenError struct {
	Reason string
}

// NewForbiddenError creates a ForbiddenError with the given reason.
func NewForbiddenError(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// ValidationError indicates malformed or semantically invalid input.
type ValidationError struct {
	Reason string
}

// NewValidationError creates a ValidationError with the given reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// ConflictError indicates the operation conflicts with committed state,
// such as an overlapping booking for the same listing.
type ConflictError struct {
	Reason string
}

// NewConflictError creates a ConflictError with the given reason.
func NewConflictError(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Reason)
}

// PartialFailureError indicates a multi-step operation failed after some
// steps already took effect. The reconciliation sweep is responsible for
// cleaning up whatever the failed tail left behind.
type PartialFailureError struct {
	Reason string
	Err    error
}

// NewPartialFailureError wraps err as a PartialFailureError.
func NewPartialFailureError(reason string, err error) *PartialFailureError {
	return &PartialFailureError{Reason: reason, Err: err}
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure: %s: %v", e.Reason, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError anywhere in its chain.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
