package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/transcript-recon/internal/model"
)

func TestFindingPriority(t *testing.T) {
	tests := []struct {
		name    string
		finding model.Finding
		want    int
	}{
		{name: "high with large refund caps at max", finding: model.Finding{Severity: model.SeverityHigh, PotentialRefund: 6000}, want: 10},
		{name: "medium without refund", finding: model.Finding{Severity: model.SeverityMedium}, want: 7},
		{name: "low with mid refund", finding: model.Finding{Severity: model.SeverityLow, PotentialRefund: 1500}, want: 7},
		{name: "low with exactly 1000", finding: model.Finding{Severity: model.SeverityLow, PotentialRefund: 1000}, want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindingPriority(tt.finding))
		})
	}
}

func TestPatternPriority(t *testing.T) {
	tests := []struct {
		name    string
		pattern model.DetectedPattern
		want    int
	}{
		{
			name:    "everything maxed",
			pattern: model.DetectedPattern{Severity: model.SeverityHigh, PotentialRecovery: 12000, AffectedYears: []int{2020, 2021, 2022}},
			want:    10,
		},
		{
			name:    "medium two years",
			pattern: model.DetectedPattern{Severity: model.SeverityMedium, PotentialRecovery: 6000, AffectedYears: []int{2021, 2022}},
			want:    8,
		},
		{
			name:    "low small",
			pattern: model.DetectedPattern{Severity: model.SeverityLow, PotentialRecovery: 100, AffectedYears: []int{2021, 2022}},
			want:    6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PatternPriority(tt.pattern))
		})
	}
}

func TestPredictionPriority(t *testing.T) {
	tests := []struct {
		name       string
		prediction model.RefundPrediction
		want       int
	}{
		{name: "likely refund", prediction: model.RefundPrediction{Type: model.PredictionRefundOpportunity, Probability: 0.7, EstimatedAmount: 2500}, want: 7},
		{name: "abatement bonus", prediction: model.RefundPrediction{Type: model.PredictionPenaltyAbatement, Probability: 0.9, EstimatedAmount: 600}, want: 8},
		{name: "unlikely small", prediction: model.RefundPrediction{Type: model.PredictionCreditEligibility, Probability: 0.3, EstimatedAmount: 50}, want: 4},
		{name: "coin flip", prediction: model.RefundPrediction{Type: model.PredictionRefundOpportunity, Probability: 0.5, EstimatedAmount: 9000}, want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PredictionPriority(tt.prediction))
		})
	}
}

func TestSortRecommendations_StableForTies(t *testing.T) {
	recs := []model.PrioritizedRecommendation{
		{ID: "a", Priority: 7},
		{ID: "b", Priority: 9},
		{ID: "c", Priority: 7},
		{ID: "d", Priority: 5},
		{ID: "e", Priority: 9},
	}

	SortRecommendations(recs)

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, ids)
}

func TestBuildRecommendations(t *testing.T) {
	now := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	findingStatute := model.ComputeStatute(2022, model.StatuteRefund, now)

	years := []model.YearAnalysis{{
		TaxYear: 2022,
		Findings: []model.Finding{{
			ID:              "discrepancy-2022-wages",
			Type:            model.FindingIncomeDiscrepancy,
			Severity:        model.SeverityMedium,
			Title:           "Wages overstated",
			RequiredAction:  "File Form 1040-X.",
			TaxYear:         2022,
			PotentialRefund: 440,
			Statute:         findingStatute,
		}},
	}}
	patterns := &model.PatternAnalysis{Patterns: []model.DetectedPattern{{
		Type:              model.PatternBusinessIncome,
		Severity:          model.SeverityHigh,
		Title:             "Recurring unreported business income",
		Recommendation:    "Amend the affected returns.",
		AffectedYears:     []int{2022, 2021},
		PotentialRecovery: 7000,
		Confidence:        0.8,
	}}}
	riskResult := &model.RiskAnalysis{Predictions: []model.RefundPrediction{{
		Type:            model.PredictionPenaltyAbatement,
		Years:           []int{2021},
		Probability:     0.6,
		EstimatedAmount: 600,
		Timeframe:       "Request within 30 days",
	}}}

	recs := BuildRecommendations(years, patterns, riskResult, now)
	require.Len(t, recs, 3)

	assert.Equal(t, "pattern-business_income", recs[0].ID)
	assert.Equal(t, 9, recs[0].Priority)
	require.NotNil(t, recs[0].Statute)
	assert.Equal(t, 2021, recs[0].Statute.TaxYear)
	assert.Equal(t, model.StatuteRefund, recs[0].Statute.Kind)

	assert.Equal(t, "discrepancy-2022-wages", recs[1].ID)
	assert.Equal(t, 7, recs[1].Priority)
	assert.Equal(t, "Act within 60 days", recs[1].Timeframe)
	assert.Equal(t, []string{"File Form 1040-X."}, recs[1].Actions)
	require.NotNil(t, recs[1].Statute)
	assert.Equal(t, time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC), recs[1].Statute.Deadline)

	assert.Equal(t, "prediction-penalty_abatement-2021", recs[2].ID)
	assert.Equal(t, 7, recs[2].Priority)
	assert.Equal(t, "Likely penalty relief (2021)", recs[2].Title)
	assert.Equal(t, model.SourcePrediction, recs[2].Source)
}

func TestBuildRecommendations_Empty(t *testing.T) {
	recs := BuildRecommendations(nil, nil, nil, time.Now())
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestTimeBarred(t *testing.T) {
	now := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		finding model.Finding
		want    bool
	}{
		{name: "expired refund", finding: model.Finding{TaxYear: 2021, Statute: model.StatuteInformation{Kind: model.StatuteRefund}}, want: true},
		{name: "open refund", finding: model.Finding{TaxYear: 2023, Statute: model.StatuteInformation{Kind: model.StatuteRefund}}, want: false},
		{name: "assessment exposure", finding: model.Finding{TaxYear: 2021, Statute: model.StatuteInformation{Kind: model.StatuteAssessment}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeBarred(tt.finding, now))
		})
	}
}

func TestBuildRecommendations_SkipsTimeBarredRefunds(t *testing.T) {
	now := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	expired := model.Finding{
		ID:              "withholding-2021",
		Type:            model.FindingWithholdingDiscrepancy,
		Severity:        model.SeverityHigh,
		Title:           "Withholding not credited",
		TaxYear:         2021,
		PotentialRefund: 6000,
		Statute:         model.ComputeStatute(2021, model.StatuteRefund, now),
	}
	require.True(t, expired.Statute.Expired)
	exposure := model.Finding{
		ID:       "discrepancy-2021-wages",
		Type:     model.FindingIncomeDiscrepancy,
		Severity: model.SeverityMedium,
		Title:    "Unreported wages",
		TaxYear:  2021,
		Statute:  model.ComputeStatute(2021, model.StatuteAssessment, now),
	}
	years := []model.YearAnalysis{{TaxYear: 2021, Findings: []model.Finding{expired, exposure}}}

	recs := BuildRecommendations(years, nil, nil, now)
	require.Len(t, recs, 1)
	assert.Equal(t, "discrepancy-2021-wages", recs[0].ID)

	for _, entry := range BuildTimeline(years, recs, now, 365) {
		assert.NotEqual(t, "withholding-2021", entry.RecommendationID)
		assert.NotEqual(t, model.ImportanceCritical, entry.Importance)
	}

	s := BuildSummary(&model.AnalysisResult{GeneratedAt: now, Years: years, Recommendations: recs})
	assert.Zero(t, s.FindingsRefundTotal)
}
