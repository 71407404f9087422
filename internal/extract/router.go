package extract

import (
	"context"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/service"
)

// Router sends PDFs to the converter and everything else to PlainText.
type Router struct {
	PDF  service.TextExtractor
	Text service.TextExtractor
}

// NewRouter builds a router. A nil pdf extractor makes PDF sources fail with
// common.ErrNoExtractor.
func NewRouter(pdf service.TextExtractor) *Router {
	return &Router{PDF: pdf, Text: PlainText{}}
}

// Extract implements service.TextExtractor.
func (r *Router) Extract(ctx context.Context, src service.Source) (service.ExtractedDocument, error) {
	if IsPDF(src) {
		if r.PDF == nil {
			return service.ExtractedDocument{}, common.ErrNoExtractor
		}
		return r.PDF.Extract(ctx, src)
	}
	return r.Text.Extract(ctx, src)
}
