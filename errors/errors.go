/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a composite key is absent from the registry
	ErrNotFound = errors.New("entity not found")

	// ErrUnknownType is returned when a type tag is not in the type registry
	ErrUnknownType = errors.New("unknown entity type")

	// ErrCorruptDocument is returned when a snapshot cannot be decoded
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrPersistence is returned when writing a snapshot fails
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UnknownTypeError represents a type tag that no factory is registered for
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown entity type %q", e.Type)
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// CorruptDocumentError represents a snapshot, or a record inside one, that cannot be decoded.
// Source names where the document came from; Reason narrows down the failing part.
type CorruptDocumentError struct {
	Source string
	Reason string
	Err    error
}

func (e *CorruptDocumentError) Error() string {
	msg := "corrupt document"
	if e.Source != "" {
		msg += " " + e.Source
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptDocumentError) Is(target error) bool {
	return target == ErrCorruptDocument
}

func (e *CorruptDocumentError) Unwrap() error {
	return e.Err
}

// PersistenceError represents a failed write of the snapshot
type PersistenceError struct {
	Op     string
	Target string
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("persistence failure during %s of %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewUnknownTypeError creates a new UnknownTypeError
func NewUnknownTypeError(entityType string) error {
	return &UnknownTypeError{Type: entityType}
}

// NewCorruptDocumentError creates a new CorruptDocumentError
func NewCorruptDocumentError(source, reason string, err error) error {
	return &CorruptDocumentError{Source: source, Reason: reason, Err: err}
}

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(op, target string, err error) error {
	return &PersistenceError{Op: op, Target: target, Err: err}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnknownType checks if an error is an unknown type error
func IsUnknownType(err error) bool {
	return errors.Is(err, ErrUnknownType)
}

// IsCorruptDocument checks if an error is a corrupt document error
func IsCorruptDocument(err error) bool {
	return errors.Is(err, ErrCorruptDocument)
}

// IsPersistenceFailure checks if an error is a persistence failure
func IsPersistenceFailure(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
