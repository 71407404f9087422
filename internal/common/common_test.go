package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/transcript-recon/internal/service"
)

func TestIsInputError(t *testing.T) {
	assert.True(t, IsInputError(fmt.Errorf("parse w2.txt: %w", ErrUnknownTranscriptType)))
	assert.True(t, IsInputError(ErrYearMismatch))
	assert.False(t, IsInputError(ErrExtractionFailed))
	assert.False(t, IsInputError(nil))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "extraction failure", err: fmt.Errorf("pdftotext: %w", ErrExtractionFailed), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "input error", err: ErrEmptyDocument, want: false},
		{name: "marked retryable", err: &RetryableError{Err: errors.New("busy"), Retryable: true}, want: true},
		{name: "marked permanent", err: &RetryableError{Err: errors.New("gone")}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestUserError(t *testing.T) {
	err := NewUserError("could not open database", ErrDatabaseCorrupted)
	assert.Equal(t, "could not open database: database corrupted", err.Error())
	assert.ErrorIs(t, err, ErrDatabaseCorrupted)

	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "could not open database", ue.UserMessage)
	assert.Equal(t, "bare", NewUserError("bare", nil).Error())
}

func TestWithRetry(t *testing.T) {
	opts := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return ErrExtractionFailed
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrExtractionFailed
		}, opts)
		require.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, ErrExtractionFailed)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrUnsupportedFormat
		}, opts)
		require.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		err := WithRetry(ctx, func() error {
			cancel()
			return ErrExtractionFailed
		}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", want: slog.LevelDebug},
		{name: "", want: slog.LevelInfo},
		{name: " WARNING ", want: slog.LevelWarn},
		{name: "error", want: slog.LevelError},
		{name: "trace", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLoggerTo(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelInfo, "json"))

	LogInfo("parsed transcript", Fields{"taxpayer_name": "JANE DOE", "tax_year": 2022})
	LogDebug("hidden", nil)

	out := buf.String()
	assert.Contains(t, out, `"taxpayer_name":"[redacted]"`)
	assert.Contains(t, out, `"tax_year":2022`)
	assert.NotContains(t, out, "JANE DOE")
	assert.NotContains(t, out, "hidden")

	assert.ErrorIs(t, SetupLoggerTo(&buf, slog.LevelInfo, "xml"), ErrInvalidConfig)
}
