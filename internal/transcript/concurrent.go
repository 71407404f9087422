package transcript

import (
	"context"
	"fmt"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/service"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight extraction and parsing when the caller
// does not choose a limit.
const DefaultConcurrency = 4

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultConcurrency
	}
	return limit
}

// ParseAll parses independent documents with at most limit running at once.
// Results keep input order. The first failure stops the batch and is
// returned; no partial result is produced.
func (p *Parser) ParseAll(ctx context.Context, docs []Document, limit int) ([]*model.ParsedTranscript, error) {
	if len(docs) == 0 {
		return nil, common.ErrNoDocuments
	}

	results := make([]*model.ParsedTranscript, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limitOrDefault(limit))

	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := p.Parse(doc)
			if err != nil {
				return fmt.Errorf("failed to parse document %d: %w", i+1, err)
			}
			results[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ExtractAll runs the extractor over every source with bounded concurrency.
// onDone, when set, is called after each successful extraction and must be
// safe for concurrent use.
func ExtractAll(ctx context.Context, extractor service.TextExtractor, sources []service.Source, limit int, onDone func(service.Source)) ([]Document, error) {
	if len(sources) == 0 {
		return nil, common.ErrNoDocuments
	}

	docs := make([]Document, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limitOrDefault(limit))

	for i, src := range sources {
		g.Go(func() error {
			extracted, err := extractor.Extract(ctx, src)
			if err != nil {
				return fmt.Errorf("failed to extract %s: %w", sourceLabel(src, i), err)
			}
			if extracted.Source == "" {
				extracted.Source = sourceLabel(src, i)
			}
			docs[i] = FromExtracted(extracted)
			if onDone != nil {
				onDone(src)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func sourceLabel(src service.Source, i int) string {
	switch {
	case src.Name != "":
		return src.Name
	case src.Path != "":
		return src.Path
	}
	return fmt.Sprintf("document %d", i+1)
}
