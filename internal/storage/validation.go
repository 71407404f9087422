// Package storage persists analysis sessions in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidResult = errors.New("invalid analysis result")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateResult checks the fields the sessions table indexes on.
func validateResult(result *model.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if strings.TrimSpace(result.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidResult)
	}
	if result.GeneratedAt.IsZero() {
		return fmt.Errorf("%w: generated time is required", ErrInvalidResult)
	}
	seen := make(map[string]bool)
	for _, y := range result.Years {
		for _, f := range y.Findings {
			if f.ID == "" {
				return fmt.Errorf("%w: finding in %d has no id", ErrInvalidResult, y.TaxYear)
			}
			if seen[f.ID] {
				return fmt.Errorf("%w: duplicate finding id %s", ErrInvalidResult, f.ID)
			}
			seen[f.ID] = true
		}
	}
	return nil
}
