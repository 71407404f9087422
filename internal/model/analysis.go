package model

import "time"

// PatternType identifies a recurring multi-year issue.
type PatternType string

// Pattern types.
const (
	PatternRecurringUnderreporting PatternType = "recurring_underreporting"
	PatternBusinessIncome          PatternType = "business_income"
	PatternInvestmentIncome        PatternType = "investment_income"
	PatternPenaltyAbatement        PatternType = "penalty_abatement"
)

// DetectedPattern is one recurring issue found across years.
type DetectedPattern struct {
	Type              PatternType `json:"type"`
	Severity          Severity    `json:"severity"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Recommendation    string      `json:"recommendation"`
	Evidence          []string    `json:"evidence"`
	AffectedYears     []int       `json:"affected_years"`
	TotalAmount       float64     `json:"total_amount"`
	PotentialRecovery float64     `json:"potential_recovery"`
	Confidence        float64     `json:"confidence"`
}

// PatternAnalysis is the PatternAnalyzer output.
type PatternAnalysis struct {
	OverallRisk   Severity          `json:"overall_risk"`
	Patterns      []DetectedPattern `json:"patterns"`
	YearsAnalyzed []int             `json:"years_analyzed"`
	TotalRecovery float64           `json:"total_recovery"`
	Confidence    float64           `json:"confidence"`
}

// AnomalyType identifies a heuristic anomaly.
type AnomalyType string

// Anomaly types.
const (
	AnomalyIncomeOutlier       AnomalyType = "income_outlier"
	AnomalyDeductionRatio      AnomalyType = "deduction_ratio"
	AnomalyTimingIrregularity  AnomalyType = "timing_irregularity"
	AnomalyAmountInconsistency AnomalyType = "amount_inconsistency"
)

// TaxAnomaly is one statistically or heuristically unusual observation.
type TaxAnomaly struct {
	Type        AnomalyType `json:"type"`
	Description string      `json:"description"`
	Evidence    []string    `json:"evidence"`
	TaxYear     int         `json:"tax_year"`
	Severity    float64     `json:"severity"`
	Score       float64     `json:"score"`
}

// PredictionType identifies a forward-looking estimate.
type PredictionType string

// Prediction types.
const (
	PredictionRefundOpportunity PredictionType = "refund_opportunity"
	PredictionPenaltyAbatement  PredictionType = "penalty_abatement"
	PredictionCreditEligibility PredictionType = "credit_eligibility"
)

// RefundPrediction is an estimate that carries an explicit probability; it is
// never asserted as certain.
type RefundPrediction struct {
	Type            PredictionType `json:"type"`
	Description     string         `json:"description"`
	Timeframe       string         `json:"timeframe"`
	Evidence        []string       `json:"evidence"`
	Years           []int          `json:"years"`
	Probability     float64        `json:"probability"`
	EstimatedAmount float64        `json:"estimated_amount"`
}

// RiskFactor is one weighted contribution to the audit risk.
type RiskFactor struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Threshold    float64 `json:"threshold"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// RiskAssessment is the weighted-rule risk summary.
type RiskAssessment struct {
	Level           Severity     `json:"level"`
	Factors         []RiskFactor `json:"factors"`
	Evidence        []string     `json:"evidence"`
	AuditRisk       float64      `json:"audit_risk"`
	PenaltyRisk     float64      `json:"penalty_risk"`
	ComplianceScore float64      `json:"compliance_score"`
}

// RiskAnalysis is the RiskAnalyzer output.
type RiskAnalysis struct {
	Anomalies   []TaxAnomaly       `json:"anomalies"`
	Predictions []RefundPrediction `json:"predictions"`
	Assessment  RiskAssessment     `json:"assessment"`
	Confidence  float64            `json:"confidence"`
}

// RecommendationSource says which analysis produced a recommendation.
type RecommendationSource string

// Recommendation sources.
const (
	SourceFinding    RecommendationSource = "finding"
	SourcePattern    RecommendationSource = "pattern"
	SourcePrediction RecommendationSource = "prediction"
)

// PrioritizedRecommendation is the normalized view of findings, patterns and
// predictions on a single 1-10 priority scale.
type PrioritizedRecommendation struct {
	Statute        *StatuteInformation  `json:"statute,omitempty"`
	ID             string               `json:"id"`
	Source         RecommendationSource `json:"source"`
	Type           string               `json:"type"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Timeframe      string               `json:"timeframe"`
	Actions        []string             `json:"actions"`
	Years          []int                `json:"years"`
	Priority       int                  `json:"priority"`
	EstimatedValue float64              `json:"estimated_value"`
	Probability    float64              `json:"probability,omitempty"`
}

// Importance tiers for timeline entries.
const (
	ImportanceCritical = "critical"
	ImportanceHigh     = "high"
	ImportanceMedium   = "medium"
)

// ActionTimelineEntry is one dated action; timelines are ordered by Deadline.
type ActionTimelineEntry struct {
	Deadline         time.Time `json:"deadline"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Importance       string    `json:"importance"`
	RecommendationID string    `json:"recommendation_id,omitempty"`
	TaxYear          int       `json:"tax_year,omitempty"`
	DaysRemaining    int       `json:"days_remaining"`
	EstimatedValue   float64   `json:"estimated_value"`
}

// ValidationReport is the outcome of cross-checking two transcripts.
type ValidationReport struct {
	Warnings       []string `json:"warnings,omitempty"`
	TaxYear        int      `json:"tax_year"`
	NameSimilarity float64  `json:"name_similarity"`
	Valid          bool     `json:"valid"`
}

// YearAnalysis collects everything computed for one tax year.
type YearAnalysis struct {
	Calculation *TaxCalculation     `json:"calculation,omitempty"`
	Validation  *ValidationReport   `json:"validation,omitempty"`
	Transcripts []*ParsedTranscript `json:"transcripts"`
	Findings    []Finding           `json:"findings"`
	TaxYear     int                 `json:"tax_year"`
}

// Summary is the headline block of an analysis result.
type Summary struct {
	OverallRisk           Severity `json:"overall_risk"`
	TopIssues             []string `json:"top_issues"`
	YearsAnalyzed         []int    `json:"years_analyzed"`
	TotalPotentialRefund  float64  `json:"total_potential_refund"`
	TotalPenaltyAbatement float64  `json:"total_penalty_abatement"`
	FindingsRefundTotal   float64  `json:"findings_refund_total"`
	ConfidenceScore       float64  `json:"confidence_score"`
	ProcessingDuration    string   `json:"processing_duration"`
}

// AnalysisResult is the single structured output of one analysis run.
type AnalysisResult struct {
	GeneratedAt     time.Time                   `json:"generated_at"`
	Patterns        *PatternAnalysis            `json:"patterns"`
	Risk            *RiskAnalysis               `json:"risk"`
	SessionID       string                      `json:"session_id"`
	Years           []YearAnalysis              `json:"years"`
	Recommendations []PrioritizedRecommendation `json:"recommendations"`
	Timeline        []ActionTimelineEntry       `json:"timeline"`
	Warnings        []string                    `json:"warnings,omitempty"`
	Summary         Summary                     `json:"summary"`
}

// TotalFindings counts findings across all years.
func (r *AnalysisResult) TotalFindings() int {
	n := 0
	for _, y := range r.Years {
		n += len(y.Findings)
	}
	return n
}
