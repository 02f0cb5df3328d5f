// Package errors provides standardized error handling for the assistant core.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transport failures at the adapter boundary. Converted to safe answer
	// text, never retried automatically, never fatal to the process.
	ErrCodeSemanticBackendUnavailable   ErrorCode = "SEMANTIC_BACKEND_UNAVAILABLE"
	ErrCodeStructuredBackendUnavailable ErrorCode = "STRUCTURED_BACKEND_UNAVAILABLE"

	// Input rejected before any backend call.
	ErrCodeQuestionValidationFailed ErrorCode = "QUESTION_VALIDATION_FAILED"

	// Cache store trouble. The cache degrades to direct calls, so these
	// are logged, not surfaced.
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewSemanticBackendUnavailableError wraps a knowledge-base transport error.
// Details stay internal; the Message is safe to show a user.
func NewSemanticBackendUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSemanticBackendUnavailable,
		Message:   "The knowledge base is currently unavailable. Please try again later.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStructuredBackendUnavailableError wraps a business-data transport error.
func NewStructuredBackendUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStructuredBackendUnavailable,
		Message:   "The business data assistant is currently unavailable. Please try again later.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuestionValidationError creates a non-retryable input rejection.
// The message is surfaced verbatim to the caller as a refusal.
func NewQuestionValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuestionValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError wraps a Redis failure.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Response cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
