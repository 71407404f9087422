// Package discrepancy compares what third parties reported to the IRS with
// what the taxpayer's filed return shows for the same year, and prices each
// material difference through the tax calculator.
package discrepancy

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
	"github.com/shopspring/decimal"
)

// DefaultMateriality is the smallest absolute difference that produces a finding.
const DefaultMateriality = 10.0

// Severity thresholds on the absolute dollar impact.
const (
	HighImpact   = 500.0
	MediumImpact = 100.0
)

// ComparedCategories are the income categories checked between transcripts.
var ComparedCategories = []model.IncomeCategory{
	model.CategoryWages,
	model.CategoryInterest,
	model.CategoryDividends,
	model.CategorySelfEmployment,
}

var categoryTitles = map[model.IncomeCategory]string{
	model.CategoryWages:          "Wages",
	model.CategoryInterest:       "Interest income",
	model.CategoryDividends:      "Dividend income",
	model.CategorySelfEmployment: "Self-employment income",
}

// Analyzer detects income and withholding discrepancies.
type Analyzer struct {
	book        *rules.Book
	materiality float64
}

// New creates an analyzer. A non-positive materiality uses DefaultMateriality.
func New(book *rules.Book, materiality float64) *Analyzer {
	if materiality <= 0 {
		materiality = DefaultMateriality
	}
	return &Analyzer{book: book, materiality: materiality}
}

// Analyze compares one income-source transcript to one account-of-record
// transcript for the same year. An invalid status falls back to the filed
// return's status.
func (a *Analyzer) Analyze(reported, filed *model.ParsedTranscript, status model.FilingStatus, asOf time.Time) ([]model.Finding, error) {
	if reported.Kind != model.KindIncomeSource || filed.Kind != model.KindAccountOfRecord {
		return nil, fmt.Errorf("%w: expected income source and account of record, got %s and %s",
			common.ErrKindMismatch, reported.Kind, filed.Kind)
	}
	if reported.TaxYear != filed.TaxYear {
		return nil, fmt.Errorf("%w: %d and %d", common.ErrYearMismatch, reported.TaxYear, filed.TaxYear)
	}

	table, err := a.book.Year(filed.TaxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze discrepancies: %w", err)
	}
	if !status.IsValid() {
		status = filed.Taxpayer.FilingStatus.Normalize()
	}

	reportedTotals, reportedWithheld := reported.Totals()
	filedTotals, filedWithheld := filed.Totals()
	agi := filedAGI(filed)

	var findings []model.Finding
	for _, category := range ComparedCategories {
		diff := cents(reportedTotals[category] - filedTotals[category])
		if math.Abs(diff) <= a.materiality {
			continue
		}

		impact := taxcalc.TaxImpact(table, status, agi, diff)
		if category == model.CategorySelfEmployment {
			impact = cents(impact + taxcalc.SelfEmploymentDelta(table, status, filedTotals[category], diff))
		}

		f := a.incomeFinding(filed.TaxYear, category, diff, impact, reportedTotals[category], filedTotals[category], asOf)
		slog.Debug("Income discrepancy",
			"tax_year", filed.TaxYear,
			"category", category,
			"difference", diff,
			"tax_impact", impact)
		findings = append(findings, f)
	}

	diff := cents(reportedWithheld - filedWithheld)
	switch {
	case math.Abs(diff) <= a.materiality:
	case !withholdingRecorded(filed):
		slog.Warn("Account transcript shows no withholding credits, skipping withholding comparison",
			"tax_year", filed.TaxYear,
			"reported_withholding", reportedWithheld)
	default:
		findings = append(findings, a.withholdingFinding(filed.TaxYear, diff, reportedWithheld, filedWithheld, asOf))
	}

	slog.Debug("Discrepancy analysis complete", "tax_year", filed.TaxYear, "findings", len(findings))
	return findings, nil
}

func (a *Analyzer) incomeFinding(year int, category model.IncomeCategory, diff, impact, reported, filed float64, asOf time.Time) model.Finding {
	name := categoryTitles[category]
	f := model.Finding{
		ID:         fmt.Sprintf("discrepancy-%d-%s", year, category),
		Type:       model.FindingIncomeDiscrepancy,
		Category:   category,
		TaxYear:    year,
		Difference: diff,
		TaxImpact:  impact,
		Severity:   severityFor(impact),
		Confidence: confidenceFor(diff),
		Evidence: []string{
			fmt.Sprintf("%d third-party %s: $%.2f", year, category, reported),
			fmt.Sprintf("%d filed %s: $%.2f", year, category, filed),
		},
	}

	if diff < 0 {
		f.PotentialRefund = math.Abs(impact)
		f.Statute = model.ComputeStatute(year, model.StatuteRefund, asOf)
		f.Title = fmt.Sprintf("%s overstated on %d return", name, year)
		f.Description = fmt.Sprintf("The %d return reports $%.2f more %s than third parties reported. Correcting it could reduce tax by about $%.2f.",
			year, -diff, category, f.PotentialRefund)
		f.RequiredAction = "Verify the overstated income and file an amended return to claim the refund before the refund statute expires."
		return f
	}

	f.Statute = model.ComputeStatute(year, model.StatuteAssessment, asOf)
	f.Title = fmt.Sprintf("%s underreported on %d return", name, year)
	f.Description = fmt.Sprintf("Third parties reported $%.2f more %s than the %d return shows. Additional tax exposure is about $%.2f.",
		diff, category, year, math.Abs(impact))
	f.RequiredAction = "Reconcile the information returns with the filed return and prepare for a possible underreporting notice."
	return f
}

func (a *Analyzer) withholdingFinding(year int, diff, reported, filed float64, asOf time.Time) model.Finding {
	f := model.Finding{
		ID:         fmt.Sprintf("discrepancy-%d-withholding", year),
		Type:       model.FindingWithholdingDiscrepancy,
		TaxYear:    year,
		Difference: diff,
		TaxImpact:  -diff,
		Severity:   severityFor(diff),
		Confidence: confidenceFor(diff),
		Evidence: []string{
			fmt.Sprintf("%d withholding reported by payers: $%.2f", year, reported),
			fmt.Sprintf("%d withholding credited to account: $%.2f", year, filed),
		},
	}

	if diff > 0 {
		f.PotentialRefund = diff
		f.Statute = model.ComputeStatute(year, model.StatuteRefund, asOf)
		f.Title = fmt.Sprintf("Uncredited withholding for %d", year)
		f.Description = fmt.Sprintf("Payers withheld $%.2f more than the account credits for %d.", diff, year)
		f.RequiredAction = "Request the missing withholding credit with copies of the W-2 and 1099 forms."
		return f
	}

	f.Statute = model.ComputeStatute(year, model.StatuteAssessment, asOf)
	f.Title = fmt.Sprintf("Withholding overclaimed for %d", year)
	f.Description = fmt.Sprintf("The account credits $%.2f more withholding than payers reported for %d.", -diff, year)
	f.RequiredAction = "Confirm the withholding figures; an overclaim is usually reversed by the IRS with a balance due."
	return f
}

// filedAGI prefers the AGI line on the account transcript and falls back to
// the sum of filed income items.
// withholdingRecorded reports whether the account transcript carries any
// withholding information at all, either a summary line, per-item amounts
// or withholding credit transactions.
func withholdingRecorded(t *model.ParsedTranscript) bool {
	if t.Account != nil && t.Account.Withholding != 0 {
		return true
	}
	for _, item := range t.Income {
		if item.Withholding != 0 {
			return true
		}
	}
	for _, p := range t.Payments {
		if p.Kind == model.PaymentWithholding {
			return true
		}
	}
	return false
}

func filedAGI(t *model.ParsedTranscript) float64 {
	if t.Account != nil && t.Account.AdjustedGrossIncome != nil {
		return *t.Account.AdjustedGrossIncome
	}
	return t.TotalIncome()
}

func severityFor(impact float64) model.Severity {
	switch abs := math.Abs(impact); {
	case abs > HighImpact:
		return model.SeverityHigh
	case abs > MediumImpact:
		return model.SeverityMedium
	}
	return model.SeverityLow
}

func confidenceFor(diff float64) model.ConfidenceLevel {
	if math.Abs(diff) >= 1000 {
		return model.ConfidenceHigh
	}
	return model.ConfidenceMedium
}

func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
