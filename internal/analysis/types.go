package analysis

import (
	"fmt"
	"strings"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultLookaheadDays = 365
	DefaultConcurrency   = 4
)

// Options holds the engine's tunable thresholds.
type Options struct {
	Tax            taxcalc.Options `mapstructure:"tax"`
	Materiality    float64         `mapstructure:"materiality_threshold" validate:"gte=0"`
	NameThreshold  float64         `mapstructure:"name_similarity_threshold" validate:"gte=0,lte=1"`
	OutlierZ       float64         `mapstructure:"outlier_z_threshold" validate:"gte=0"`
	MaxConcurrency int             `mapstructure:"max_concurrency" validate:"gte=0,lte=64"`
	LookaheadDays  int             `mapstructure:"lookahead_days" validate:"gte=0"`
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultConcurrency
	}
	if o.LookaheadDays <= 0 {
		o.LookaheadDays = DefaultLookaheadDays
	}
	return o
}

// ClientContext is what the client tells us that the transcripts do not.
type ClientContext struct {
	Itemized          *model.ItemizedDeductions `json:"itemized,omitempty"`
	State             string                    `json:"state,omitempty" validate:"omitempty,len=2,alpha"`
	FilingStatus      model.FilingStatus        `json:"filing_status,omitempty"`
	Dependents        []model.Dependent         `json:"dependents,omitempty" validate:"dive"`
	EducationExpenses float64                   `json:"education_expenses,omitempty" validate:"gte=0"`
	ReasonableCause   bool                      `json:"reasonable_cause,omitempty"`
}

// Validate checks the client context. An empty context is valid.
func (c *ClientContext) Validate() error {
	if c.FilingStatus != "" && !c.FilingStatus.IsValid() {
		return fmt.Errorf("unknown filing status %q", c.FilingStatus)
	}
	if c.State != "" && len(strings.TrimSpace(c.State)) != 2 {
		return fmt.Errorf("state must be a two-letter code, got %q", c.State)
	}
	if c.EducationExpenses < 0 {
		return fmt.Errorf("education expenses must be non-negative")
	}
	for i, d := range c.Dependents {
		if d.BirthYear <= 0 {
			return fmt.Errorf("dependent %d: birth year is required", i+1)
		}
	}
	return nil
}

// ProgressCallback provides updates during analysis execution.
type ProgressCallback func(stage string, percent int)
