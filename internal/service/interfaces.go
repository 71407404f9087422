// Package service defines the interfaces for the collaborators around the
// analysis core: text extraction, result persistence and export.
package service

import (
	"context"
	"io"
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// Source is one input document. Either Path or Data is set.
type Source struct {
	Name string
	Path string
	Data []byte
}

// Section is a titled span of extracted text. Extractors that can see the
// document layout pass these along as hints for the parser.
type Section struct {
	Title string
	Text  string
}

// ExtractedDocument is the text form of one transcript.
type ExtractedDocument struct {
	Source   string
	Text     string
	Sections []Section
}

// TextExtractor turns document bytes into plain text plus section hints.
type TextExtractor interface {
	Extract(ctx context.Context, src Source) (ExtractedDocument, error)
}

// SessionSummary is the listing view of a stored analysis.
type SessionSummary struct {
	CreatedAt            time.Time      `json:"created_at"`
	ID                   string         `json:"id"`
	OverallRisk          model.Severity `json:"overall_risk"`
	Years                []int          `json:"years"`
	Recommendations      int            `json:"recommendations"`
	TotalPotentialRefund float64        `json:"total_potential_refund"`
}

// ResultStore persists analysis results keyed by session id.
type ResultStore interface {
	Save(ctx context.Context, result *model.AnalysisResult) error
	Get(ctx context.Context, sessionID string) (*model.AnalysisResult, error)
	List(ctx context.Context, limit int) ([]SessionSummary, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// Exporter serializes selected parts of a result.
type Exporter interface {
	Export(w io.Writer, result *model.AnalysisResult) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
