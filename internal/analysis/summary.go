package analysis

import (
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/shopspring/decimal"
)

// TopIssueCount is how many recommendation titles the summary lists.
const TopIssueCount = 5

// BuildSummary computes the headline block from a merged result.
func BuildSummary(result *model.AnalysisResult) model.Summary {
	s := model.Summary{
		OverallRisk:   model.SeverityLow,
		TopIssues:     []string{},
		YearsAnalyzed: make([]int, 0, len(result.Years)),
	}
	for _, y := range result.Years {
		s.YearsAnalyzed = append(s.YearsAnalyzed, y.TaxYear)
		for _, f := range y.Findings {
			if TimeBarred(f, result.GeneratedAt) {
				continue
			}
			s.FindingsRefundTotal += f.PotentialRefund
		}
	}

	var confidences []float64
	if result.Patterns != nil {
		s.TotalPotentialRefund += result.Patterns.TotalRecovery
		s.OverallRisk = model.MaxSeverity(s.OverallRisk, result.Patterns.OverallRisk)
		confidences = append(confidences, result.Patterns.Confidence)
	}
	if result.Risk != nil {
		for _, p := range result.Risk.Predictions {
			switch p.Type {
			case model.PredictionRefundOpportunity:
				s.TotalPotentialRefund += p.EstimatedAmount
			case model.PredictionPenaltyAbatement:
				s.TotalPenaltyAbatement += p.EstimatedAmount
			case model.PredictionCreditEligibility:
			}
		}
		s.OverallRisk = model.MaxSeverity(s.OverallRisk, result.Risk.Assessment.Level)
		confidences = append(confidences, result.Risk.Confidence)
	}

	for i, rec := range result.Recommendations {
		if i == TopIssueCount {
			break
		}
		s.TopIssues = append(s.TopIssues, rec.Title)
	}

	if len(confidences) > 0 {
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		s.ConfidenceScore = round(sum/float64(len(confidences)), 4)
	}
	s.TotalPotentialRefund = round(s.TotalPotentialRefund, 2)
	s.TotalPenaltyAbatement = round(s.TotalPenaltyAbatement, 2)
	s.FindingsRefundTotal = round(s.FindingsRefundTotal, 2)
	return s
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
