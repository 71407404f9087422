// Package risk scores audit and penalty exposure and predicts refund
// opportunities with explicit weighted rules. Nothing here is learned from
// data; every weight and threshold is an exported table.
package risk

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultOutlierZ is the z-score beyond which a year's income is an outlier.
const DefaultOutlierZ = 2.0

// Options tunes the analyzer.
type Options struct {
	OutlierZ float64 `mapstructure:"outlier_z_threshold" validate:"gte=0"`
}

// Context carries inputs that do not come from the per-year analyses.
type Context struct {
	AsOf            time.Time
	Patterns        *model.PatternAnalysis
	ReasonableCause bool
}

// Analyzer runs anomaly detection, risk assessment and predictions.
type Analyzer struct {
	outlierZ float64
}

// New creates a risk analyzer.
func New(opts Options) *Analyzer {
	z := opts.OutlierZ
	if z <= 0 {
		z = DefaultOutlierZ
	}
	return &Analyzer{outlierZ: z}
}

// Analyze scores a multi-year set of per-year analyses.
func (a *Analyzer) Analyze(years []model.YearAnalysis, ctx Context) *model.RiskAnalysis {
	sorted := append([]model.YearAnalysis(nil), years...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TaxYear < sorted[j].TaxYear })

	anomalies := a.DetectAnomalies(sorted)
	result := &model.RiskAnalysis{
		Anomalies:   anomalies,
		Assessment:  Assess(sorted, anomalies, ctx.Patterns),
		Predictions: Predict(sorted, ctx),
		Confidence:  Confidence(len(sorted)),
	}

	slog.Info("Risk analysis complete",
		"years", len(sorted),
		"anomalies", len(result.Anomalies),
		"predictions", len(result.Predictions),
		"level", result.Assessment.Level)
	return result
}

// Confidence grows with the number of years and is capped at 0.9.
func Confidence(years int) float64 {
	return round(math.Min(0.5+0.1*math.Min(float64(years), 4), 0.9))
}

func accountOf(y model.YearAnalysis) *model.ParsedTranscript {
	for _, t := range y.Transcripts {
		if t.Kind == model.KindAccountOfRecord {
			return t
		}
	}
	return nil
}

func incomeSourceOf(y model.YearAnalysis) *model.ParsedTranscript {
	for _, t := range y.Transcripts {
		if t.Kind == model.KindIncomeSource {
			return t
		}
	}
	return nil
}

// totalIncome uses the calculated gross income when present, then
// third-party totals, then the filed return.
func totalIncome(y model.YearAnalysis) float64 {
	if y.Calculation != nil {
		return y.Calculation.GrossIncome
	}
	if t := incomeSourceOf(y); t != nil {
		return t.TotalIncome()
	}
	if t := accountOf(y); t != nil {
		return t.TotalIncome()
	}
	return 0
}

func categoryIncome(y model.YearAnalysis, category model.IncomeCategory) float64 {
	t := incomeSourceOf(y)
	if t == nil {
		t = accountOf(y)
	}
	if t == nil {
		return 0
	}
	totals, _ := t.Totals()
	return totals[category]
}

func claimedDeductions(y model.YearAnalysis) float64 {
	if t := accountOf(y); t != nil {
		return t.TotalDeductions()
	}
	return 0
}

// incomeItems returns the year's income items once. The account transcript
// mirrors third-party amounts, so income-source items win when present.
func incomeItems(y model.YearAnalysis) []model.IncomeItem {
	var reported, other []model.IncomeItem
	for _, t := range y.Transcripts {
		if t.Kind == model.KindIncomeSource {
			reported = append(reported, t.Income...)
			continue
		}
		other = append(other, t.Income...)
	}
	if len(reported) > 0 {
		return reported
	}
	return other
}

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
