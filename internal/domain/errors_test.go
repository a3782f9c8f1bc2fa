// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "message only",
			err:      NewNotFoundError("event not found"),
			expected: "event not found",
		},
		{
			name:     "message with wrapped error",
			err:      NewInternalError("failed to load event", errors.New("kv timeout")),
			expected: "failed to load event: kv timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"validation", NewValidationError("bad email"), ErrorTypeValidation},
		{"not found", NewNotFoundError("no such attendee"), ErrorTypeNotFound},
		{"conflict", NewConflictError("stale revision"), ErrorTypeConflict},
		{"quota", NewQuotaExceededError("too many attendees"), ErrorTypeQuotaExceeded},
		{"forbidden", NewForbiddenError("no write permission"), ErrorTypeForbidden},
		{"unavailable", NewUnavailableError("store not ready"), ErrorTypeUnavailable},
		{"plain error falls back to internal", errors.New("boom"), ErrorTypeInternal},
		{"wrapped domain error", fmt.Errorf("context: %w", NewNotFoundError("gone")), ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorType(tt.err))
		})
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewConflictError("update conflict", cause)
	assert.ErrorIs(t, err, cause)
}
