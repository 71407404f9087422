package model

import (
	"math"
	"time"
)

// Severity ranks how much attention an issue needs.
type Severity string

// Severity levels.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities: low=1, medium=2, high=3, unknown=0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// MaxSeverity returns the more severe of two levels.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ConfidenceLevel is the qualitative confidence attached to a finding.
type ConfidenceLevel string

// Confidence levels.
const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// StatuteKind identifies which limitation period applies.
type StatuteKind string

// Statute kinds.
const (
	StatuteRefund     StatuteKind = "refund"
	StatuteAssessment StatuteKind = "assessment"
	StatuteCollection StatuteKind = "collection"
)

// Limitation periods, in years from the filing deadline.
const (
	RefundStatuteYears     = 3
	AssessmentStatuteYears = 3
	CollectionStatuteYears = 10
)

// StatuteInformation describes the legal deadline attached to a tax year.
type StatuteInformation struct {
	FilingDeadline time.Time   `json:"filing_deadline"`
	Deadline       time.Time   `json:"deadline"`
	Kind           StatuteKind `json:"kind"`
	TaxYear        int         `json:"tax_year"`
	DaysRemaining  int         `json:"days_remaining"`
	Expired        bool        `json:"expired"`
}

// FilingDeadline is April 15 of the year after the tax year.
func FilingDeadline(taxYear int) time.Time {
	return time.Date(taxYear+1, time.April, 15, 0, 0, 0, 0, time.UTC)
}

// ComputeStatute derives the statute for a tax year from that year alone.
func ComputeStatute(taxYear int, kind StatuteKind, asOf time.Time) StatuteInformation {
	filing := FilingDeadline(taxYear)

	years := RefundStatuteYears
	switch kind {
	case StatuteRefund:
		years = RefundStatuteYears
	case StatuteAssessment:
		years = AssessmentStatuteYears
	case StatuteCollection:
		years = CollectionStatuteYears
	}
	deadline := filing.AddDate(years, 0, 0)

	days := DaysBetween(asOf, deadline)
	return StatuteInformation{
		TaxYear:        taxYear,
		Kind:           kind,
		FilingDeadline: filing,
		Deadline:       deadline,
		DaysRemaining:  days,
		Expired:        days < 0,
	}
}

// DaysBetween counts whole calendar days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// FindingType classifies a detected issue.
type FindingType string

// Finding types.
const (
	FindingIncomeDiscrepancy      FindingType = "income_discrepancy"
	FindingWithholdingDiscrepancy FindingType = "withholding_discrepancy"
	FindingPenaltyAbatement       FindingType = "penalty_abatement"
	FindingFrozenRefund           FindingType = "frozen_refund"
	FindingUndeliverableRefund    FindingType = "undeliverable_refund"
	FindingRefundOffset           FindingType = "refund_offset"
	FindingSubstituteReturn       FindingType = "substitute_return"
)

// Finding is a single detected issue for one tax year.
type Finding struct {
	Statute         StatuteInformation `json:"statute"`
	ID              string             `json:"id"`
	Type            FindingType        `json:"type"`
	Severity        Severity           `json:"severity"`
	Confidence      ConfidenceLevel    `json:"confidence"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	RequiredAction  string             `json:"required_action"`
	Category        IncomeCategory     `json:"category,omitempty"`
	TransactionCode string             `json:"transaction_code,omitempty"`
	Evidence        []string           `json:"evidence,omitempty"`
	TaxYear         int                `json:"tax_year"`
	Difference      float64            `json:"difference"`
	TaxImpact       float64            `json:"tax_impact"`
	PotentialRefund float64            `json:"potential_refund"`
	Likelihood      float64            `json:"likelihood,omitempty"`
}
