// Package analysis orchestrates transcript analysis: it parses documents,
// runs the per-year and multi-year analyzers, and merges their output into a
// prioritized, deadline-aware action plan.
package analysis

import (
	"fmt"
	"time"

	"github.com/Veraticus/transcript-recon/internal/discrepancy"
	"github.com/Veraticus/transcript-recon/internal/events"
	"github.com/Veraticus/transcript-recon/internal/pattern"
	"github.com/Veraticus/transcript-recon/internal/risk"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/Veraticus/transcript-recon/internal/service"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
	"github.com/Veraticus/transcript-recon/internal/transcript"
	"github.com/Veraticus/transcript-recon/internal/validation"
)

// Deps contains the dependencies required by the analysis engine.
type Deps struct {
	// Rules provides the per-year tax tables.
	Rules *rules.Book
	// Extractor turns source documents into text. Only AnalyzeSources needs it.
	Extractor service.TextExtractor
	// Recorder receives metrics. Optional.
	Recorder Recorder
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Rules == nil {
		return fmt.Errorf("rules dependency is required")
	}
	return nil
}

// Engine runs the analysis pipeline.
type Engine struct {
	deps        Deps
	opts        Options
	parser      *transcript.Parser
	calculator  *taxcalc.Calculator
	validator   *validation.Engine
	discrepancy *discrepancy.Analyzer
	events      *events.Analyzer
	patterns    *pattern.Analyzer
	risk        *risk.Analyzer
}

// NewEngine creates a new analysis engine with the provided dependencies.
func NewEngine(deps Deps, opts Options) (*Engine, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}
	opts = opts.withDefaults()

	return &Engine{
		deps:        deps,
		opts:        opts,
		parser:      transcript.NewParser(deps.Rules.DefaultTaxYear()),
		calculator:  taxcalc.New(deps.Rules, opts.Tax),
		validator:   validation.New(opts.NameThreshold),
		discrepancy: discrepancy.New(deps.Rules, opts.Materiality),
		events:      events.NewAnalyzer(),
		patterns:    pattern.NewAnalyzer(),
		risk:        risk.New(risk.Options{OutlierZ: opts.OutlierZ}),
	}, nil
}
