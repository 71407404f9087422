// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrNoDocuments           = errors.New("no documents to analyze")
	ErrUnknownTranscriptType = errors.New("transcript type unknown")
	ErrEmptyDocument         = errors.New("document contains no text")

	// Cross-document errors.
	ErrIdentityMismatch = errors.New("taxpayer identity mismatch")
	ErrYearMismatch     = errors.New("tax year mismatch")
	ErrKindMismatch     = errors.New("transcript kind mismatch")

	// Storage errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Extraction errors.
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoExtractor       = errors.New("no extractor command configured")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsInputError reports whether err was caused by the documents themselves
// rather than by the environment. Callers use it to decide between a client
// error and an internal one.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrNoDocuments,
		ErrUnknownTranscriptType,
		ErrEmptyDocument,
		ErrIdentityMismatch,
		ErrYearMismatch,
		ErrKindMismatch,
		ErrUnsupportedFormat,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if IsInputError(err) {
		return false
	}
	if errors.Is(err, ErrExtractionFailed) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
