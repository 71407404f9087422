package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/transcript-recon/internal/model"
)

func sampleResult() *model.AnalysisResult {
	statute := model.ComputeStatute(2021, model.StatuteRefund, fixedNow)
	return &model.AnalysisResult{
		SessionID:   "session-1",
		GeneratedAt: fixedNow,
		Years: []model.YearAnalysis{
			{
				TaxYear: 2021,
				Calculation: &model.TaxCalculation{
					FilingStatus:  model.FilingSingle,
					AdjustedGross: 62000,
					TaxableIncome: 49450,
					FederalTax:    6087,
					NetTax:        6087,
					State:         &model.StateTaxResult{State: "IL", Tax: 2900.43},
				},
				Findings: []model.Finding{{Title: "Wages overstated on return", Severity: model.SeverityHigh}},
			},
			{TaxYear: 2022},
		},
		Patterns: &model.PatternAnalysis{Patterns: []model.DetectedPattern{{
			Title:             "Recurring unreported interest",
			Severity:          model.SeverityMedium,
			AffectedYears:     []int{2021, 2022},
			PotentialRecovery: 330,
		}}},
		Timeline: []model.ActionTimelineEntry{{
			Deadline:       statute.Deadline,
			Title:          "Refund statute expires for 2021",
			Importance:     model.ImportanceHigh,
			EstimatedValue: 440,
		}},
		Warnings: []string{"2021: name similarity 0.72 below threshold"},
		Summary: model.Summary{
			OverallRisk:          model.SeverityMedium,
			YearsAnalyzed:        []int{2021, 2022},
			TopIssues:            []string{"Wages overstated on return"},
			TotalPotentialRefund: 770,
			ConfidenceScore:      0.65,
		},
	}
}

func TestCLIFormatter_FormatSummary(t *testing.T) {
	out := NewCLIFormatter().FormatSummary(sampleResult())

	for _, want := range []string{
		"Transcript Analysis Report",
		"Tax years: 2021, 2022",
		"session-1",
		"$770.00",
		"MEDIUM",
		"65%",
		"AGI $62000.00",
		"State IL: $2900.43",
		"Wages overstated on return",
		"No findings",
		"Recurring unreported interest: 2021, 2022",
		"Top issues:",
		"name similarity 0.72",
	} {
		assert.Contains(t, out, want)
	}
}

func TestCLIFormatter_FormatSummaryNil(t *testing.T) {
	assert.Contains(t, NewCLIFormatter().FormatSummary(nil), "No analysis result available")
}

func TestCLIFormatter_FormatRecommendation(t *testing.T) {
	statute := model.ComputeStatute(2021, model.StatuteRefund, fixedNow)
	out := NewCLIFormatter().FormatRecommendation(model.PrioritizedRecommendation{
		Title:          "Likely penalty relief (2021)",
		Description:    "First-time abatement applies.",
		Source:         model.SourcePrediction,
		Priority:       8,
		EstimatedValue: 600,
		Probability:    0.7,
		Timeframe:      "Request within 30 days",
		Actions:        []string{"Request abatement by phone or file Form 843."},
		Statute:        &statute,
	})

	assert.Contains(t, out, "[P8] Likely penalty relief (2021)")
	assert.Contains(t, out, "Value: $600.00")
	assert.Contains(t, out, "Probability: 70%")
	assert.Contains(t, out, "Form 843")
	assert.Contains(t, out, "refund statute for 2021: 2025-04-15 (90 days left)")
}

func TestCLIFormatter_FormatRecommendationExpiredStatute(t *testing.T) {
	statute := model.ComputeStatute(2019, model.StatuteRefund, fixedNow)
	out := NewCLIFormatter().FormatRecommendation(model.PrioritizedRecommendation{Title: "Old", Statute: &statute})
	assert.Contains(t, out, "refund statute for 2019 expired")
	assert.NotContains(t, out, "Probability")
}

func TestCLIFormatter_FormatTimeline(t *testing.T) {
	f := NewCLIFormatter()

	assert.Contains(t, f.FormatTimeline(&model.AnalysisResult{}), "No upcoming deadlines")

	out := f.FormatTimeline(sampleResult())
	assert.Contains(t, out, "Action Timeline")
	assert.Contains(t, out, "2025-04-15")
	assert.Contains(t, out, "Refund statute expires for 2021")
	assert.Contains(t, out, "$440.00")
}

func TestStyles_RenderBar(t *testing.T) {
	s := NewStyles()

	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("░", 5), s.RenderBar(0.5, 10))
	assert.Equal(t, strings.Repeat("░", 10), s.RenderBar(-1, 10))
	assert.Equal(t, strings.Repeat("█", 10), s.RenderBar(2, 10))
	assert.Equal(t, 30, len([]rune(s.RenderBar(0.3, 0))))
}

func TestStyles_WithWidth(t *testing.T) {
	s := NewStyles()
	narrowed := s.WithWidth(80)
	assert.NotSame(t, s, narrowed)
	assert.Equal(t, 76, narrowed.Box.GetWidth())
	assert.Equal(t, 0, s.WithWidth(120).Box.GetWidth())
}

var _ ReportFormatter = (*CLIFormatter)(nil)
