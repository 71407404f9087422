package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// MaxPriority is the top of the recommendation scale.
const MaxPriority = 10

// BuildRecommendations merges findings, patterns and predictions onto one
// priority scale, highest first. Ties keep their input order. Time-barred
// refund findings are left out.
func BuildRecommendations(years []model.YearAnalysis, patterns *model.PatternAnalysis, riskResult *model.RiskAnalysis, now time.Time) []model.PrioritizedRecommendation {
	recs := []model.PrioritizedRecommendation{}

	for _, y := range years {
		for _, f := range y.Findings {
			if TimeBarred(f, now) {
				continue
			}
			recs = append(recs, fromFinding(f))
		}
	}
	if patterns != nil {
		for _, p := range patterns.Patterns {
			recs = append(recs, fromPattern(p, now))
		}
	}
	if riskResult != nil {
		for _, p := range riskResult.Predictions {
			recs = append(recs, fromPrediction(p, now))
		}
	}

	SortRecommendations(recs)
	return recs
}

// TimeBarred reports whether a refund finding's claim window closed before now.
// Such findings stay on the year record but are never scheduled or counted.
func TimeBarred(f model.Finding, now time.Time) bool {
	if f.Statute.Kind != model.StatuteRefund {
		return false
	}
	return model.ComputeStatute(f.TaxYear, model.StatuteRefund, now).Expired
}

// SortRecommendations orders by descending priority and is stable for ties.
func SortRecommendations(recs []model.PrioritizedRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority > recs[j].Priority })
}

// FindingPriority scores a finding: 5 base, plus severity and value bonuses.
func FindingPriority(f model.Finding) int {
	return min(5+severityBonus(f.Severity)+valueBonus(f.PotentialRefund), MaxPriority)
}

// PatternPriority scores a pattern: 5 base, plus severity, recovery and a
// bonus when three or more years are affected.
func PatternPriority(p model.DetectedPattern) int {
	priority := 5 + severityBonus(p.Severity)
	switch {
	case p.PotentialRecovery > 10000:
		priority += 2
	case p.PotentialRecovery > 5000:
		priority++
	}
	if len(p.AffectedYears) >= 3 {
		priority++
	}
	return min(priority, MaxPriority)
}

// PredictionPriority scores a prediction: 4 base, plus probability and amount
// bonuses, plus one for penalty abatement.
func PredictionPriority(p model.RefundPrediction) int {
	priority := 4
	switch {
	case p.Probability >= 0.8:
		priority += 3
	case p.Probability >= 0.6:
		priority += 2
	case p.Probability >= 0.4:
		priority++
	}
	priority += valueBonus(p.EstimatedAmount)
	if p.Type == model.PredictionPenaltyAbatement {
		priority++
	}
	return min(priority, MaxPriority)
}

func severityBonus(s model.Severity) int {
	return s.Rank()
}

func valueBonus(amount float64) int {
	switch {
	case amount > 5000:
		return 2
	case amount > 1000:
		return 1
	}
	return 0
}

func timeframeFor(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "Act within 30 days"
	case model.SeverityMedium:
		return "Act within 60 days"
	case model.SeverityLow:
		return "Act within 90 days"
	}
	return "Act within 60 days"
}

func fromFinding(f model.Finding) model.PrioritizedRecommendation {
	statute := f.Statute
	return model.PrioritizedRecommendation{
		ID:             f.ID,
		Source:         model.SourceFinding,
		Type:           string(f.Type),
		Title:          f.Title,
		Description:    f.Description,
		Timeframe:      timeframeFor(f.Severity),
		Actions:        []string{f.RequiredAction},
		Years:          []int{f.TaxYear},
		Priority:       FindingPriority(f),
		EstimatedValue: f.PotentialRefund,
		Probability:    f.Likelihood,
		Statute:        &statute,
	}
}

func fromPattern(p model.DetectedPattern, now time.Time) model.PrioritizedRecommendation {
	rec := model.PrioritizedRecommendation{
		ID:             fmt.Sprintf("pattern-%s", p.Type),
		Source:         model.SourcePattern,
		Type:           string(p.Type),
		Title:          p.Title,
		Description:    p.Description,
		Timeframe:      timeframeFor(p.Severity),
		Actions:        []string{p.Recommendation},
		Years:          append([]int(nil), p.AffectedYears...),
		Priority:       PatternPriority(p),
		EstimatedValue: p.PotentialRecovery,
		Probability:    p.Confidence,
	}
	if len(p.AffectedYears) > 0 {
		statute := model.ComputeStatute(earliest(p.AffectedYears), model.StatuteRefund, now)
		rec.Statute = &statute
	}
	return rec
}

func fromPrediction(p model.RefundPrediction, now time.Time) model.PrioritizedRecommendation {
	id := string(p.Type)
	if len(p.Years) > 0 {
		id = fmt.Sprintf("prediction-%s-%d", p.Type, p.Years[0])
	}
	rec := model.PrioritizedRecommendation{
		ID:             id,
		Source:         model.SourcePrediction,
		Type:           string(p.Type),
		Title:          predictionTitle(p),
		Description:    p.Description,
		Timeframe:      p.Timeframe,
		Actions:        []string{predictionAction(p.Type)},
		Years:          append([]int(nil), p.Years...),
		Priority:       PredictionPriority(p),
		EstimatedValue: p.EstimatedAmount,
		Probability:    p.Probability,
	}
	if len(p.Years) > 0 {
		statute := model.ComputeStatute(earliest(p.Years), model.StatuteRefund, now)
		rec.Statute = &statute
	}
	return rec
}

func predictionTitle(p model.RefundPrediction) string {
	year := ""
	if len(p.Years) > 0 {
		year = fmt.Sprintf(" (%d)", p.Years[0])
	}
	switch p.Type {
	case model.PredictionRefundOpportunity:
		return "Possible unclaimed refund" + year
	case model.PredictionPenaltyAbatement:
		return "Likely penalty relief" + year
	case model.PredictionCreditEligibility:
		return "Possible unclaimed credits" + year
	}
	return string(p.Type) + year
}

func predictionAction(t model.PredictionType) string {
	switch t {
	case model.PredictionRefundOpportunity:
		return "File Form 1040-X or a claim for refund before the refund statute expires."
	case model.PredictionPenaltyAbatement:
		return "Request abatement by phone or file Form 843."
	case model.PredictionCreditEligibility:
		return "Confirm dependent and education records and amend to claim the credits."
	}
	return "Review with a tax professional."
}

func earliest(years []int) int {
	e := years[0]
	for _, y := range years[1:] {
		e = min(e, y)
	}
	return e
}
