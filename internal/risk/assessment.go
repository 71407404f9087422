package risk

import (
	"fmt"
	"math"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// FactorRule is one weighted audit-risk rule. It contributes only when the
// observed value exceeds Threshold.
type FactorRule struct {
	Name      string
	Threshold float64
	Weight    float64
}

// Audit-risk factor names.
const (
	FactorHighIncome     = "high_income"
	FactorBusinessIncome = "business_income"
	FactorDeductionRatio = "deduction_ratio"
	FactorHighPatterns   = "high_severity_patterns"
)

// AssessmentFactors are the weighted rules applied to the latest year.
var AssessmentFactors = []FactorRule{
	{Name: FactorHighIncome, Threshold: 200000, Weight: 0.15},
	{Name: FactorBusinessIncome, Threshold: 25000, Weight: 0.10},
	{Name: FactorDeductionRatio, Threshold: 0.30, Weight: 0.12},
}

// Pattern and anomaly weights.
const (
	HighPatternWeight    = 0.05
	AnomalyPenaltyWeight = 0.1
	maxFactorMultiple    = 2.0
	highRiskLevel        = 0.5
	mediumRiskLevel      = 0.25
)

// Contribution scales the rule weight by how far value exceeds the
// threshold, up to twice the weight.
func (r FactorRule) Contribution(value float64) float64 {
	if r.Threshold <= 0 || value <= r.Threshold {
		return 0
	}
	return r.Weight * math.Min(value/r.Threshold, maxFactorMultiple)
}

// Assess scores audit and penalty risk for the latest year in years.
func Assess(years []model.YearAnalysis, anomalies []model.TaxAnomaly, patterns *model.PatternAnalysis) model.RiskAssessment {
	assessment := model.RiskAssessment{Factors: []model.RiskFactor{}, Evidence: []string{}}

	var audit float64
	if len(years) > 0 {
		latest := years[len(years)-1]
		income := totalIncome(latest)
		values := map[string]float64{
			FactorHighIncome:     income,
			FactorBusinessIncome: categoryIncome(latest, model.CategorySelfEmployment),
		}
		if income > 0 {
			values[FactorDeductionRatio] = claimedDeductions(latest) / income
		}

		for _, rule := range AssessmentFactors {
			value := values[rule.Name]
			contribution := rule.Contribution(value)
			assessment.Factors = append(assessment.Factors, model.RiskFactor{
				Name:         rule.Name,
				Value:        round(value),
				Threshold:    rule.Threshold,
				Weight:       rule.Weight,
				Contribution: round(contribution),
			})
			if contribution > 0 {
				assessment.Evidence = append(assessment.Evidence,
					fmt.Sprintf("%d %s of %.2f exceeds %.2f", latest.TaxYear, rule.Name, value, rule.Threshold))
			}
			audit += contribution
		}
	}

	if patterns != nil {
		high := 0
		for _, p := range patterns.Patterns {
			if p.Severity == model.SeverityHigh {
				high++
			}
		}
		if high > 0 {
			contribution := HighPatternWeight * float64(high)
			assessment.Factors = append(assessment.Factors, model.RiskFactor{
				Name:         FactorHighPatterns,
				Value:        float64(high),
				Weight:       HighPatternWeight,
				Contribution: round(contribution),
			})
			assessment.Evidence = append(assessment.Evidence, fmt.Sprintf("%d high-severity recurring pattern(s)", high))
			audit += contribution
		}
	}

	var penalty float64
	for _, a := range anomalies {
		penalty += AnomalyPenaltyWeight * a.Severity
	}

	assessment.AuditRisk = round(math.Min(audit, 1))
	assessment.PenaltyRisk = round(math.Min(penalty, 1))
	composite := assessment.AuditRisk + assessment.PenaltyRisk
	assessment.ComplianceScore = round(math.Max(1-composite, 0))
	assessment.Level = LevelFor(composite)
	return assessment
}

// LevelFor maps a composite risk score to a severity.
func LevelFor(composite float64) model.Severity {
	switch {
	case composite >= highRiskLevel:
		return model.SeverityHigh
	case composite >= mediumRiskLevel:
		return model.SeverityMedium
	}
	return model.SeverityLow
}
