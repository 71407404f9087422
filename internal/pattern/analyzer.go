package pattern

import (
	"log/slog"
	"math"
	"sort"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/shopspring/decimal"
)

// Confidence blend weights.
const (
	evidenceWeight = 0.4
	spanWeight     = 0.3
	severityWeight = 0.3
	fullDataYears  = 3.0
	fullEvidence   = 5.0
)

// Analyzer runs detectors over a multi-year set of transcripts.
type Analyzer struct {
	detectors []Detector
}

// NewAnalyzer creates an analyzer. With no detectors it uses DefaultDetectors.
func NewAnalyzer(detectors ...Detector) *Analyzer {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Analyzer{detectors: detectors}
}

// Analyze groups transcripts by year and reports every recurring pattern.
func (a *Analyzer) Analyze(transcripts []*model.ParsedTranscript) *model.PatternAnalysis {
	years := GroupByYear(transcripts)
	result := &model.PatternAnalysis{
		YearsAnalyzed: make([]int, 0, len(years)),
		Patterns:      []model.DetectedPattern{},
	}
	for _, y := range years {
		result.YearsAnalyzed = append(result.YearsAnalyzed, y.TaxYear)
	}

	for _, d := range a.detectors {
		p, ok := d.Detect(years)
		if !ok {
			continue
		}
		p.Confidence = PatternConfidence(p)
		result.Patterns = append(result.Patterns, p)
		result.TotalRecovery += p.PotentialRecovery
	}
	result.TotalRecovery = roundCents(result.TotalRecovery)
	result.OverallRisk = OverallRisk(result.Patterns)
	result.Confidence = OverallConfidence(result.Patterns, len(years))

	slog.Info("Pattern analysis complete",
		"years", len(years),
		"patterns", len(result.Patterns),
		"overall_risk", result.OverallRisk)
	return result
}

// GroupByYear buckets transcripts by tax year in ascending order.
func GroupByYear(transcripts []*model.ParsedTranscript) []Year {
	index := make(map[int]int)
	var years []Year
	for _, t := range transcripts {
		i, ok := index[t.TaxYear]
		if !ok {
			i = len(years)
			index[t.TaxYear] = i
			years = append(years, Year{TaxYear: t.TaxYear})
		}
		years[i].Transcripts = append(years[i].Transcripts, t)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].TaxYear < years[j].TaxYear })
	return years
}

// OverallRisk is high with two high patterns, medium with one high or three
// medium patterns, and low otherwise.
func OverallRisk(patterns []model.DetectedPattern) model.Severity {
	var high, medium int
	for _, p := range patterns {
		switch p.Severity {
		case model.SeverityHigh:
			high++
		case model.SeverityMedium:
			medium++
		case model.SeverityLow:
		}
	}
	switch {
	case high >= 2:
		return model.SeverityHigh
	case high >= 1 || medium >= 3:
		return model.SeverityMedium
	}
	return model.SeverityLow
}

// PatternConfidence blends evidence count, year span and severity.
func PatternConfidence(p model.DetectedPattern) float64 {
	evidence := math.Min(float64(len(p.Evidence))/fullEvidence, 1)
	span := math.Min(float64(yearSpan(p.AffectedYears))/fullDataYears, 1)
	return round(evidenceWeight*evidence + spanWeight*span + severityWeight*SeverityWeight(p.Severity))
}

// OverallConfidence averages pattern confidence and scales it by how many
// years of data were available.
func OverallConfidence(patterns []model.DetectedPattern, years int) float64 {
	quantity := math.Min(float64(years)/fullDataYears, 1)
	if len(patterns) == 0 {
		return round(0.5 * quantity)
	}
	var sum float64
	for _, p := range patterns {
		sum += p.Confidence
	}
	return round(sum / float64(len(patterns)) * quantity)
}

// SeverityWeight maps a severity onto the 0-1 scale used in confidence.
func SeverityWeight(s model.Severity) float64 {
	switch s {
	case model.SeverityHigh:
		return 1
	case model.SeverityMedium:
		return 0.6
	case model.SeverityLow:
		return 0.3
	}
	return 0
}

func yearSpan(years []int) int {
	if len(years) == 0 {
		return 0
	}
	lo, hi := years[0], years[0]
	for _, y := range years[1:] {
		lo = min(lo, y)
		hi = max(hi, y)
	}
	return hi - lo + 1
}

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
