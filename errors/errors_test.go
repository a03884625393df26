/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("User", "User.123")

	expected := `User with key "User.123" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestUnknownTypeError(t *testing.T) {
	err := NewUnknownTypeError("Spaceship")

	expected := `unknown entity type "Spaceship"`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsUnknownType(err) {
		t.Error("IsUnknownType should return true for UnknownTypeError")
	}
	if IsNotFound(err) {
		t.Error("UnknownTypeError should not match ErrNotFound")
	}
}

func TestCorruptDocumentError(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		reason   string
		cause    error
		expected string
	}{
		{
			name:     "full",
			source:   "file.json",
			reason:   "root is not an object",
			cause:    errors.New("boom"),
			expected: "corrupt document file.json: root is not an object: boom",
		},
		{
			name:     "reason only",
			reason:   `record "User.1": missing id`,
			expected: `corrupt document: record "User.1": missing id`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCorruptDocumentError(tt.source, tt.reason, tt.cause)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}
			if !IsCorruptDocument(err) {
				t.Error("IsCorruptDocument should return true for CorruptDocumentError")
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Error("CorruptDocumentError should unwrap to its cause")
			}
		})
	}
}

func TestPersistenceError(t *testing.T) {
	cause := &fs.PathError{Op: "open", Path: "file.json", Err: fs.ErrPermission}
	err := NewPersistenceError("save", "file.json", cause)

	expected := "persistence failure during save of file.json: open file.json: permission denied"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsPersistenceFailure(err) {
		t.Error("IsPersistenceFailure should return true for PersistenceError")
	}

	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Error("PersistenceError should unwrap to *fs.PathError")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("PersistenceError should match the underlying permission error")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "id",
			message:  "reserved attribute cannot be updated",
			expected: `validation failed for field "id": reserved attribute cannot be updated`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "attribute name missing",
			expected: "validation failed: attribute name missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !errors.Is(err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	original := NewNotFoundError("User", "User.123")
	wrapped := fmt.Errorf("destroy failed: %w", original)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped NotFoundError should still match ErrNotFound")
	}

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrUnknownType,
		ErrCorruptDocument,
		ErrPersistence,
		ErrInvalidInput,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
