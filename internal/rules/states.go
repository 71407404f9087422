package rules

import (
	"fmt"
	"sort"
	"strings"
)

// StateTaxKind is how a state taxes income.
type StateTaxKind string

// State tax kinds.
const (
	StateNoTax       StateTaxKind = "none"
	StateFlat        StateTaxKind = "flat"
	StateProgressive StateTaxKind = "progressive"
)

// StateRule is one jurisdiction's simplified income tax.
type StateRule struct {
	Code              string       `yaml:"-"`
	Name              string       `yaml:"name"`
	Kind              StateTaxKind `yaml:"kind"`
	Brackets          []Bracket    `yaml:"brackets"`
	FlatRate          float64      `yaml:"rate"`
	StandardDeduction float64      `yaml:"standard_deduction"`
}

type stateFile struct {
	States map[string]StateRule `yaml:"states"`
}

func (r StateRule) validate() error {
	switch r.Kind {
	case StateNoTax:
		return nil
	case StateFlat:
		if r.FlatRate <= 0 || r.FlatRate >= 1 {
			return fmt.Errorf("state %s: flat rate %v out of range", r.Code, r.FlatRate)
		}
		return nil
	case StateProgressive:
		if len(r.Brackets) == 0 {
			return fmt.Errorf("state %s: progressive state without brackets", r.Code)
		}
		if r.Brackets[len(r.Brackets)-1].Max != nil {
			return fmt.Errorf("state %s: top bracket must be open ended", r.Code)
		}
		return nil
	}
	return fmt.Errorf("state %s: unknown kind %q", r.Code, r.Kind)
}

// State looks up a state by two-letter code, case-insensitively.
func (b *Book) State(code string) (StateRule, bool) {
	rule, ok := b.states[strings.ToUpper(strings.TrimSpace(code))]
	return rule, ok
}

// States lists modeled state codes in alphabetical order.
func (b *Book) States() []string {
	codes := make([]string, 0, len(b.states))
	for code := range b.states {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
