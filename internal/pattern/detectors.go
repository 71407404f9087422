package pattern

import (
	"fmt"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// Assumed rates used to price recovery.
const (
	AssumedMarginalRate       = 0.22
	AssumedSelfEmploymentRate = 0.1413
	AssumedCapitalGainsRate   = 0.15
	LargePenaltyTotal         = 5000.0
	MinRecurringYears         = 2
	HighRecurringYears        = 3
)

// DefaultDetectors returns the detectors run by the analyzer, in output order.
func DefaultDetectors() []Detector {
	return []Detector{
		UnreportedIncomeDetector{
			Type:        model.PatternRecurringUnderreporting,
			Title:       "Recurring unreported income",
			Rate:        AssumedMarginalRate,
			Match:       func(model.IncomeItem) bool { return true },
			Action:      "Reconcile every information return against the filed return and amend the affected years.",
			MaxSeverity: model.SeverityHigh,
		},
		UnreportedIncomeDetector{
			Type:        model.PatternBusinessIncome,
			Title:       "Recurring unreported business income",
			Rate:        AssumedMarginalRate + AssumedSelfEmploymentRate,
			Match:       isBusinessItem,
			Action:      "Reconstruct business income and expenses on Schedule C and amend with self-employment tax.",
			MaxSeverity: model.SeverityHigh,
		},
		UnreportedIncomeDetector{
			Type:        model.PatternInvestmentIncome,
			Title:       "Recurring unreported investment income",
			Rate:        AssumedCapitalGainsRate,
			Match:       isInvestmentItem,
			Action:      "Collect brokerage and bank statements and report interest and dividends on Schedule B.",
			MaxSeverity: model.SeverityMedium,
		},
		PenaltyDetector{},
	}
}

// UnreportedIncomeDetector finds income items missing from filed returns in
// two or more years.
type UnreportedIncomeDetector struct {
	Match       func(model.IncomeItem) bool
	Type        model.PatternType
	Title       string
	Action      string
	MaxSeverity model.Severity
	Rate        float64
}

// Detect implements Detector.
func (d UnreportedIncomeDetector) Detect(years []Year) (model.DetectedPattern, bool) {
	var (
		affected []int
		evidence []string
		total    float64
	)
	for _, y := range years {
		var amount float64
		var count int
		for _, item := range y.IncomeItems() {
			if item.Unreported && d.Match(item) {
				amount += item.Amount
				count++
			}
		}
		if count == 0 {
			continue
		}
		affected = append(affected, y.TaxYear)
		total += amount
		evidence = append(evidence, fmt.Sprintf("%d: $%.2f unreported across %d item(s)", y.TaxYear, amount, count))
	}
	if len(affected) < MinRecurringYears {
		return model.DetectedPattern{}, false
	}

	severity := model.SeverityMedium
	if len(affected) >= HighRecurringYears {
		severity = model.SeverityHigh
	}
	if severity.Rank() > d.MaxSeverity.Rank() {
		severity = d.MaxSeverity
	}

	return model.DetectedPattern{
		Type:              d.Type,
		Severity:          severity,
		Title:             d.Title,
		Description:       fmt.Sprintf("Income was left off the return in %d years, totaling $%.2f.", len(affected), total),
		Recommendation:    d.Action,
		Evidence:          evidence,
		AffectedYears:     affected,
		TotalAmount:       total,
		PotentialRecovery: roundCents(total * d.Rate),
	}, true
}

func isBusinessItem(item model.IncomeItem) bool {
	return item.Form.IsBusiness() ||
		item.Category == model.CategorySelfEmployment ||
		(item.Form == model.Form1099MISC && item.Category != model.CategoryOther)
}

func isInvestmentItem(item model.IncomeItem) bool {
	return item.Category == model.CategoryInterest || item.Category == model.CategoryDividends
}

// PenaltyDetector finds years with penalties that relief could remove.
type PenaltyDetector struct{}

// Detect implements Detector.
func (PenaltyDetector) Detect(years []Year) (model.DetectedPattern, bool) {
	var (
		affected []int
		evidence []string
		total    float64
	)
	for _, y := range years {
		var amount float64
		for _, p := range y.Penalties() {
			if p.AbatementEligible() {
				amount += p.Amount
			}
		}
		if amount <= 0 {
			continue
		}
		affected = append(affected, y.TaxYear)
		total += amount
		evidence = append(evidence, fmt.Sprintf("%d: $%.2f in abatement-eligible penalties", y.TaxYear, amount))
	}
	if len(affected) == 0 {
		return model.DetectedPattern{}, false
	}

	severity := model.SeverityLow
	switch {
	case total > LargePenaltyTotal:
		severity = model.SeverityHigh
	case len(affected) >= MinRecurringYears:
		severity = model.SeverityMedium
	}

	return model.DetectedPattern{
		Type:              model.PatternPenaltyAbatement,
		Severity:          severity,
		Title:             "Penalties eligible for abatement",
		Description:       fmt.Sprintf("Standing penalties in %d year(s) total $%.2f.", len(affected), total),
		Recommendation:    "Request first-time abatement for the earliest year, then reasonable-cause relief for later years.",
		Evidence:          evidence,
		AffectedYears:     affected,
		TotalAmount:       total,
		PotentialRecovery: roundCents(total),
	}, true
}
