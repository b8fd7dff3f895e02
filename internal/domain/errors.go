package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input. It maps to a
// 400 at the HTTP boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a validation error for a named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a booking or scheduling collision: the requested
// time window overlaps a commitment the vehicle already has.
type ConflictError struct {
	Resource string
	ID       string
	Message  string
}

func (e *ConflictError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Resource, e.Message)
}

// NewConflictError creates a conflict error for a resource.
func NewConflictError(resource, id, message string) *ConflictError {
	return &ConflictError{Resource: resource, ID: id, Message: message}
}

// StateError reports an operation applied to an entity whose current
// status does not permit it, e.g. cancelling an already-used ticket.
type StateError struct {
	Entity  string
	Status  string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s in status %s: %s", e.Entity, e.Status, e.Message)
}

// NewStateError creates a state error for an entity in the given status.
func NewStateError(entity, status, message string) *StateError {
	return &StateError{Entity: entity, Status: status, Message: message}
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// NewNotFoundError creates a not-found error for a resource.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// IntegrityAnomaly reports an inconsistency between stored records that
// should never occur, e.g. a seat availability row whose seat is missing.
// It is logged and repaired where possible, never surfaced to clients.
type IntegrityAnomaly struct {
	Detail string
	Err    error
}

func (e *IntegrityAnomaly) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity anomaly: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("integrity anomaly: %s", e.Detail)
}

func (e *IntegrityAnomaly) Unwrap() error {
	return e.Err
}

// NewIntegrityAnomaly creates an integrity anomaly with an optional cause.
func NewIntegrityAnomaly(detail string, err error) *IntegrityAnomaly {
	return &IntegrityAnomaly{Detail: detail, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsState reports whether err is a StateError.
func IsState(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsIntegrityAnomaly reports whether err is an IntegrityAnomaly.
func IsIntegrityAnomaly(err error) bool {
	var target *IntegrityAnomaly
	return errors.As(err, &target)
}
