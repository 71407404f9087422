package extract

import (
	"context"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/service"
)

// Retrying retries transient extraction failures.
type Retrying struct {
	next service.TextExtractor
	opts service.RetryOptions
}

// WithRetry wraps an extractor.
func WithRetry(next service.TextExtractor, opts service.RetryOptions) *Retrying {
	return &Retrying{next: next, opts: opts}
}

// Extract implements service.TextExtractor.
func (r *Retrying) Extract(ctx context.Context, src service.Source) (service.ExtractedDocument, error) {
	var doc service.ExtractedDocument
	err := common.WithRetry(ctx, func() error {
		var err error
		doc, err = r.next.Extract(ctx, src)
		return err
	}, r.opts)
	return doc, err
}
