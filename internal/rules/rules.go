// Package rules holds the immutable per-year federal rule tables and the
// state tax table. Tables are data files embedded in the binary; adding a
// tax year means adding a file under data/.
package rules

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/transcript-recon/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// ErrRuleTableUnavailable is returned when no table exists for a tax year.
// There is no extrapolation from neighbouring years.
var ErrRuleTableUnavailable = errors.New("rule table unavailable")

// Bracket is one progressive rate band. A nil Max means the band is open ended.
type Bracket struct {
	Max  *float64 `yaml:"max" json:"max,omitempty"`
	Min  float64  `yaml:"min" json:"min"`
	Rate float64  `yaml:"rate" json:"rate"`
}

// Upper returns the bracket ceiling, or +Inf for the top bracket.
func (b Bracket) Upper() float64 {
	if b.Max == nil {
		return math.Inf(1)
	}
	return *b.Max
}

// Contains reports whether an income amount falls inside the band.
func (b Bracket) Contains(income float64) bool {
	return income > b.Min && income <= b.Upper()
}

// StatusAmounts maps a filing status to a dollar threshold.
type StatusAmounts map[model.FilingStatus]float64

// For returns the amount for the status, following the fallback rules.
func (s StatusAmounts) For(status model.FilingStatus) float64 {
	return s[fallback(status, func(fs model.FilingStatus) bool { _, ok := s[fs]; return ok })]
}

// Range is an inclusive dollar band.
type Range struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// SelfEmploymentRules parameterize SE tax.
type SelfEmploymentRules struct {
	AdditionalMedicareThreshold StatusAmounts `yaml:"additional_medicare_threshold"`
	NetEarningsFactor           float64       `yaml:"net_earnings_factor"`
	SocialSecurityRate          float64       `yaml:"social_security_rate"`
	SocialSecurityWageBase      float64       `yaml:"social_security_wage_base"`
	MedicareRate                float64       `yaml:"medicare_rate"`
	AdditionalMedicareRate      float64       `yaml:"additional_medicare_rate"`
}

// AMTRules parameterize the alternative minimum tax.
type AMTRules struct {
	Exemption      StatusAmounts `yaml:"exemption"`
	PhaseoutStart  StatusAmounts `yaml:"phaseout_start"`
	UpperThreshold StatusAmounts `yaml:"upper_rate_threshold"`
	PhaseoutRate   float64       `yaml:"phaseout_rate"`
	LowerRate      float64       `yaml:"lower_rate"`
	UpperRate      float64       `yaml:"upper_rate"`
}

// ChildTaxCreditRules parameterize the CTC.
type ChildTaxCreditRules struct {
	PhaseoutThreshold StatusAmounts `yaml:"phaseout_threshold"`
	PerChild          float64       `yaml:"per_child"`
	ReductionPerStep  float64       `yaml:"reduction_per_step"`
	StepSize          float64       `yaml:"step_size"`
	MaxAge            int           `yaml:"max_age"`
}

// EITCSchedule is the three-segment curve for one number of qualifying children.
type EITCSchedule struct {
	Children           int     `yaml:"children"`
	PhaseInRate        float64 `yaml:"phase_in_rate"`
	MaxCredit          float64 `yaml:"max_credit"`
	PhaseoutStart      float64 `yaml:"phaseout_start"`
	PhaseoutStartJoint float64 `yaml:"phaseout_start_joint"`
	PhaseoutRate       float64 `yaml:"phaseout_rate"`
}

// PlateauStart is the earned income at which the maximum credit is reached.
func (e EITCSchedule) PlateauStart() float64 {
	if e.PhaseInRate <= 0 {
		return 0
	}
	return e.MaxCredit / e.PhaseInRate
}

// PhaseoutBegin is the phase-out start for the filing status.
func (e EITCSchedule) PhaseoutBegin(status model.FilingStatus) float64 {
	if status.IsJoint() && e.PhaseoutStartJoint > 0 {
		return e.PhaseoutStartJoint
	}
	return e.PhaseoutStart
}

// PhaseoutEnd is the earned income at which the credit reaches zero.
func (e EITCSchedule) PhaseoutEnd(status model.FilingStatus) float64 {
	if e.PhaseoutRate <= 0 {
		return math.Inf(1)
	}
	return e.PhaseoutBegin(status) + e.MaxCredit/e.PhaseoutRate
}

// AOTCRules parameterize the American Opportunity credit.
type AOTCRules struct {
	Phaseout         map[model.FilingStatus]Range `yaml:"phaseout"`
	FullRateExpenses float64                      `yaml:"full_rate_expenses"`
	PartialExpenses  float64                      `yaml:"partial_rate_expenses"`
	PartialRate      float64                      `yaml:"partial_rate"`
	MaxCredit        float64                      `yaml:"max_credit"`
}

// PhaseoutFor returns the AGI band for the status.
func (a AOTCRules) PhaseoutFor(status model.FilingStatus) (Range, bool) {
	key := fallback(status, func(fs model.FilingStatus) bool { _, ok := a.Phaseout[fs]; return ok })
	r, ok := a.Phaseout[key]
	return r, ok
}

// YearTable is the full federal rule set for one tax year. It is shared
// process-wide and must be treated as read-only.
type YearTable struct {
	Brackets          map[model.FilingStatus][]Bracket `yaml:"brackets"`
	StandardDeduction StatusAmounts                    `yaml:"standard_deduction"`
	ChildTaxCredit    ChildTaxCreditRules              `yaml:"child_tax_credit"`
	AMT               AMTRules                         `yaml:"amt"`
	AOTC              AOTCRules                        `yaml:"american_opportunity_credit"`
	EITC              []EITCSchedule                   `yaml:"eitc"`
	SelfEmployment    SelfEmploymentRules              `yaml:"self_employment"`
	Year              int                              `yaml:"year"`
	SALTCap           float64                          `yaml:"salt_cap"`
	MedicalAGIFloor   float64                          `yaml:"medical_agi_floor"`
	CharitableAGICap  float64                          `yaml:"charitable_agi_cap"`
}

// BracketsFor returns the ordered brackets for the status. Unknown statuses
// use the single table; a surviving spouse uses the joint table when the year
// has no dedicated entry.
func (t *YearTable) BracketsFor(status model.FilingStatus) []Bracket {
	key := fallback(status, func(fs model.FilingStatus) bool { _, ok := t.Brackets[fs]; return ok })
	return t.Brackets[key]
}

// EITCFor returns the schedule for the number of qualifying children, capped
// at the largest schedule in the table.
func (t *YearTable) EITCFor(children int) (EITCSchedule, bool) {
	if len(t.EITC) == 0 {
		return EITCSchedule{}, false
	}
	best := t.EITC[0]
	for _, s := range t.EITC {
		if s.Children == children {
			return s, true
		}
		if s.Children <= children && s.Children > best.Children {
			best = s
		}
	}
	return best, true
}

func fallback(status model.FilingStatus, has func(model.FilingStatus) bool) model.FilingStatus {
	status = status.Normalize()
	if has(status) {
		return status
	}
	if status == model.FilingQualifyingSurvivingSpouse && has(model.FilingMarriedJointly) {
		return model.FilingMarriedJointly
	}
	return model.FilingSingle
}

func (t *YearTable) validate() error {
	if t.Year == 0 {
		return errors.New("missing year")
	}
	single, ok := t.Brackets[model.FilingSingle]
	if !ok || len(single) == 0 {
		return fmt.Errorf("year %d: missing single brackets", t.Year)
	}
	for status, brackets := range t.Brackets {
		if !status.IsValid() {
			return fmt.Errorf("year %d: unknown filing status %q", t.Year, status)
		}
		if len(brackets) == 0 {
			return fmt.Errorf("year %d %s: no brackets", t.Year, status)
		}
		for i, b := range brackets {
			if i > 0 && b.Min != brackets[i-1].Upper() {
				return fmt.Errorf("year %d %s: bracket %d does not start at previous max", t.Year, status, i)
			}
			if i < len(brackets)-1 && b.Max == nil {
				return fmt.Errorf("year %d %s: only the top bracket may be open ended", t.Year, status)
			}
		}
		if brackets[len(brackets)-1].Max != nil {
			return fmt.Errorf("year %d %s: top bracket must be open ended", t.Year, status)
		}
	}
	if _, ok := t.StandardDeduction[model.FilingSingle]; !ok {
		return fmt.Errorf("year %d: missing single standard deduction", t.Year)
	}
	sort.Slice(t.EITC, func(i, j int) bool { return t.EITC[i].Children < t.EITC[j].Children })
	return nil
}

// Book is the loaded set of year tables and the state table.
type Book struct {
	years  map[int]*YearTable
	states map[string]StateRule
}

// Load parses every embedded table.
func Load() (*Book, error) {
	return LoadFS(dataFS, "data")
}

// LoadFS parses year tables (year_*.yaml) and states.yaml from dir in fsys.
func LoadFS(fsys fs.FS, dir string) (*Book, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule directory: %w", err)
	}

	book := &Book{
		years:  make(map[int]*YearTable),
		states: make(map[string]StateRule),
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		if name == "states.yaml" {
			var file stateFile
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", name, err)
			}
			for code, rule := range file.States {
				rule.Code = strings.ToUpper(code)
				if err := rule.validate(); err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				book.states[rule.Code] = rule
			}
			continue
		}

		var table YearTable
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if err := table.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := book.years[table.Year]; dup {
			return nil, fmt.Errorf("%s: duplicate table for year %d", name, table.Year)
		}
		book.years[table.Year] = &table
	}

	if len(book.years) == 0 {
		return nil, errors.New("no year tables found")
	}

	slog.Debug("Loaded tax rule tables",
		"years", book.Years(),
		"states", len(book.states))

	return book, nil
}

var (
	defaultOnce sync.Once
	defaultBook *Book
	errDefault  error
)

// Default returns the process-wide book, loading it on first use.
func Default() (*Book, error) {
	defaultOnce.Do(func() {
		defaultBook, errDefault = Load()
	})
	return defaultBook, errDefault
}

// MustDefault is Default for callers that treat a broken embedded table as a
// programming error.
func MustDefault() *Book {
	book, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded rule tables are invalid: %v", err))
	}
	return book
}

// Year returns the table for a tax year.
func (b *Book) Year(year int) (*YearTable, error) {
	t, ok := b.years[year]
	if !ok {
		return nil, fmt.Errorf("%w: tax year %d (supported: %v)", ErrRuleTableUnavailable, year, b.Years())
	}
	return t, nil
}

// Years lists supported tax years in ascending order.
func (b *Book) Years() []int {
	years := make([]int, 0, len(b.years))
	for y := range b.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// LatestYear is the most recent supported tax year.
func (b *Book) LatestYear() int {
	years := b.Years()
	return years[len(years)-1]
}

// DefaultTaxYear is used when a transcript carries no readable tax year: the
// most recent supported year minus one.
func (b *Book) DefaultTaxYear() int {
	return b.LatestYear() - 1
}
