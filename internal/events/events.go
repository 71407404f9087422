// Package events interprets IRS account transaction codes and turns standing
// penalties, refund freezes and refund problems into findings.
package events

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// Abatement likelihood weights.
const (
	BaseLikelihood           = 0.3
	FirstTimeBonus           = 0.3
	ReasonableCauseBonus     = 0.2
	SmallPenaltyBonus        = 0.1
	SmallPenaltyAmount       = 500.0
	HighConfidenceLikelihood = 0.7
	FirstTimeLookbackYears   = 3
	RefundMatchWindowDays    = 30
)

const (
	substituteReturnMarker    = "substitute for return"
	substituteReturnShortForm = "SFR"
)

// Context carries facts about the taxpayer that are not on the transcript.
type Context struct {
	// PenaltyYears are tax years with at least one standing penalty.
	PenaltyYears    []int
	ReasonableCause bool
}

// Analyzer turns account activity into actionable findings.
type Analyzer struct{}

// NewAnalyzer creates an event analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze inspects one account-of-record transcript. Income-source
// transcripts carry no account activity and yield nothing.
func (a *Analyzer) Analyze(t *model.ParsedTranscript, ctx Context, asOf time.Time) []model.Finding {
	if t.Kind != model.KindAccountOfRecord {
		return nil
	}

	var findings []model.Finding
	findings = append(findings, a.penaltyFindings(t, ctx, asOf)...)
	findings = append(findings, a.freezeFindings(t, asOf)...)
	findings = append(findings, a.refundIssueFindings(t, asOf)...)
	if f, ok := a.substituteReturnFinding(t, asOf); ok {
		findings = append(findings, f)
	}

	slog.Debug("Event analysis complete",
		"tax_year", t.TaxYear,
		"transactions", len(t.Transactions),
		"findings", len(findings))
	return findings
}

// AbatementLikelihood scores how likely a penalty is to be removed.
func AbatementLikelihood(amount float64, firstTime, reasonableCause bool) float64 {
	likelihood := BaseLikelihood
	if firstTime {
		likelihood += FirstTimeBonus
	}
	if reasonableCause {
		likelihood += ReasonableCauseBonus
	}
	if amount < SmallPenaltyAmount {
		likelihood += SmallPenaltyBonus
	}
	return math.Min(math.Round(likelihood*100)/100, 1)
}

// FirstTimeEligible reports whether no penalty was assessed in the three
// years before taxYear.
func FirstTimeEligible(taxYear int, penaltyYears []int) bool {
	for _, y := range penaltyYears {
		if y < taxYear && y >= taxYear-FirstTimeLookbackYears {
			return false
		}
	}
	return true
}

// PenaltyYears lists the years whose transcripts carry a standing penalty.
func PenaltyYears(transcripts []*model.ParsedTranscript) []int {
	seen := make(map[int]bool)
	var years []int
	for _, t := range transcripts {
		for _, p := range t.Penalties {
			if p.Abated || p.Amount <= 0 || seen[t.TaxYear] {
				continue
			}
			seen[t.TaxYear] = true
			years = append(years, t.TaxYear)
		}
	}
	return years
}

func (a *Analyzer) penaltyFindings(t *model.ParsedTranscript, ctx Context, asOf time.Time) []model.Finding {
	firstTime := FirstTimeEligible(t.TaxYear, ctx.PenaltyYears)

	var findings []model.Finding
	for i, p := range t.Penalties {
		if !p.AbatementEligible() {
			continue
		}
		info, ok := Lookup(p.Code)
		if !ok || !info.Reversible {
			continue
		}

		likelihood := AbatementLikelihood(p.Amount, firstTime, ctx.ReasonableCause)
		confidence := model.ConfidenceMedium
		if likelihood > HighConfidenceLikelihood {
			confidence = model.ConfidenceHigh
		}

		evidence := []string{fmt.Sprintf("TC %s on %s: $%.2f", p.Code, p.Date.Format("2006-01-02"), p.Amount)}
		action := "Request penalty abatement for reasonable cause with supporting documentation."
		if firstTime {
			evidence = append(evidence, fmt.Sprintf("No penalties in the %d years before %d", FirstTimeLookbackYears, t.TaxYear))
			action = "Request first-time penalty abatement by phone or with Form 843."
		}
		if ctx.ReasonableCause {
			evidence = append(evidence, "Reasonable-cause circumstances reported")
		}

		findings = append(findings, model.Finding{
			ID:              fmt.Sprintf("event-%d-%s-%d", t.TaxYear, p.Code, i),
			Type:            model.FindingPenaltyAbatement,
			TaxYear:         t.TaxYear,
			TransactionCode: p.Code,
			Severity:        amountSeverity(p.Amount),
			Confidence:      confidence,
			Likelihood:      likelihood,
			PotentialRefund: p.Amount,
			Title:           fmt.Sprintf("%s penalty may be abatable (%d)", penaltyTitle(p.Kind), t.TaxYear),
			Description:     fmt.Sprintf("%s of $%.2f assessed for %d with an estimated %.0f%% chance of abatement.", info.Description, p.Amount, t.TaxYear, likelihood*100),
			RequiredAction:  action,
			Evidence:        evidence,
			Statute:         model.ComputeStatute(t.TaxYear, model.StatuteRefund, asOf),
		})
	}
	return findings
}

var freezeReleases = map[string]string{
	"570": "571",
	"810": "811",
}

func (a *Analyzer) freezeFindings(t *model.ParsedTranscript, asOf time.Time) []model.Finding {
	var refund float64
	if t.Account != nil && t.Account.AccountBalance != nil && *t.Account.AccountBalance < 0 {
		refund = -*t.Account.AccountBalance
	}

	var findings []model.Finding
	for i, tc := range t.Transactions {
		release, ok := freezeReleases[tc.Code]
		if !ok || releasedAfter(t.Transactions, release, tc.Date) {
			continue
		}
		info, _ := Lookup(tc.Code)
		findings = append(findings, model.Finding{
			ID:              fmt.Sprintf("event-%d-%s-%d", t.TaxYear, tc.Code, i),
			Type:            model.FindingFrozenRefund,
			TaxYear:         t.TaxYear,
			TransactionCode: tc.Code,
			Severity:        model.SeverityHigh,
			Confidence:      model.ConfidenceHigh,
			PotentialRefund: refund,
			Title:           fmt.Sprintf("Refund frozen for %d", t.TaxYear),
			Description:     fmt.Sprintf("TC %s (%s) on %s has no matching TC %s release.", tc.Code, info.Description, tc.Date.Format("2006-01-02"), release),
			RequiredAction:  "Call the IRS to identify the hold and respond to any pending notice so the refund can be released.",
			Evidence:        []string{fmt.Sprintf("TC %s %s", tc.Code, tc.Date.Format("2006-01-02"))},
			Statute:         model.ComputeStatute(t.TaxYear, model.StatuteRefund, asOf),
		})
	}
	return findings
}

func releasedAfter(transactions []model.TransactionCode, release string, since time.Time) bool {
	for _, tc := range transactions {
		if tc.Code == release && !tc.Date.Before(since) {
			return true
		}
	}
	return false
}

func (a *Analyzer) refundIssueFindings(t *model.ParsedTranscript, asOf time.Time) []model.Finding {
	var findings []model.Finding
	for i, tc := range t.Transactions {
		id := fmt.Sprintf("event-%d-%s-%d", t.TaxYear, tc.Code, i)
		switch tc.Code {
		case "740", "841":
			amount := math.Abs(tc.Amount)
			evidence := []string{fmt.Sprintf("TC %s on %s: $%.2f", tc.Code, tc.Date.Format("2006-01-02"), amount)}
			if issued, ok := nearbyRefund(t.Transactions, tc.Date); ok {
				amount = math.Abs(issued.Amount)
				evidence = append(evidence, fmt.Sprintf("TC 846 on %s: $%.2f", issued.Date.Format("2006-01-02"), amount))
			}
			findings = append(findings, model.Finding{
				ID:              id,
				Type:            model.FindingUndeliverableRefund,
				TaxYear:         t.TaxYear,
				TransactionCode: tc.Code,
				Severity:        amountSeverity(amount),
				Confidence:      model.ConfidenceHigh,
				PotentialRefund: amount,
				Title:           fmt.Sprintf("Refund for %d was returned or cancelled", t.TaxYear),
				Description:     fmt.Sprintf("A refund of $%.2f was not delivered.", amount),
				RequiredAction:  "Confirm the mailing address with Form 8822 and request a replacement with Form 3911.",
				Evidence:        evidence,
				Statute:         model.ComputeStatute(t.TaxYear, model.StatuteRefund, asOf),
			})
		case "898":
			amount := math.Abs(tc.Amount)
			f := model.Finding{
				ID:              id,
				Type:            model.FindingRefundOffset,
				TaxYear:         t.TaxYear,
				TransactionCode: tc.Code,
				Severity:        model.SeverityMedium,
				Confidence:      model.ConfidenceLow,
				Title:           fmt.Sprintf("Refund offset to non-IRS debt in %d", t.TaxYear),
				Description:     fmt.Sprintf("$%.2f of the refund was applied to a debt owed to another agency.", amount),
				RequiredAction:  "Contact the Bureau of the Fiscal Service to confirm the debt.",
				Evidence:        []string{fmt.Sprintf("TC 898 on %s: $%.2f", tc.Date.Format("2006-01-02"), amount)},
				Statute:         model.ComputeStatute(t.TaxYear, model.StatuteRefund, asOf),
			}
			if t.Taxpayer.FilingStatus == model.FilingMarriedJointly {
				f.PotentialRefund = amount
				f.RequiredAction = "If the debt belongs only to your spouse, file Form 8379 as an injured spouse."
			}
			findings = append(findings, f)
		}
	}
	return findings
}

func nearbyRefund(transactions []model.TransactionCode, around time.Time) (model.TransactionCode, bool) {
	for _, tc := range transactions {
		if tc.Code != "846" {
			continue
		}
		days := model.DaysBetween(around, tc.Date)
		if days >= -RefundMatchWindowDays && days <= RefundMatchWindowDays {
			return tc, true
		}
	}
	return model.TransactionCode{}, false
}

func (a *Analyzer) substituteReturnFinding(t *model.ParsedTranscript, asOf time.Time) (model.Finding, bool) {
	var marker *model.TransactionCode
	for i := range t.Transactions {
		tc := &t.Transactions[i]
		desc := strings.ToLower(tc.Description)
		isSubstitute := tc.Code == "599" ||
			(tc.Code == "150" && strings.Contains(desc, substituteReturnMarker)) ||
			containsWord(tc.Description, substituteReturnShortForm)
		if isSubstitute {
			marker = tc
			break
		}
	}
	if marker == nil {
		return model.Finding{}, false
	}

	return model.Finding{
		ID:              fmt.Sprintf("event-%d-substitute-return", t.TaxYear),
		Type:            model.FindingSubstituteReturn,
		TaxYear:         t.TaxYear,
		TransactionCode: marker.Code,
		Severity:        model.SeverityHigh,
		Confidence:      model.ConfidenceHigh,
		Title:           fmt.Sprintf("Substitute return filed for %d", t.TaxYear),
		Description:     "The IRS prepared the return for this year. Substitute returns omit deductions, credits and favorable filing statuses.",
		RequiredAction:  "File an original return for this year to replace the substitute assessment.",
		Evidence:        []string{fmt.Sprintf("TC %s on %s: %s", marker.Code, marker.Date.Format("2006-01-02"), marker.Description)},
		Statute:         model.ComputeStatute(t.TaxYear, model.StatuteRefund, asOf),
	}, true
}

func containsWord(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == '(' || r == ')' || r == ',' }) {
		if strings.EqualFold(f, word) {
			return true
		}
	}
	return false
}

func amountSeverity(amount float64) model.Severity {
	switch {
	case amount > 500:
		return model.SeverityHigh
	case amount > 100:
		return model.SeverityMedium
	}
	return model.SeverityLow
}

func penaltyTitle(kind model.PenaltyKind) string {
	switch kind {
	case model.PenaltyFailureToFile:
		return "Failure-to-file"
	case model.PenaltyFailureToPay:
		return "Failure-to-pay"
	case model.PenaltyEstimatedTax:
		return "Estimated tax"
	case model.PenaltyBadCheck:
		return "Dishonored payment"
	case model.PenaltyMiscellaneous:
		return "Miscellaneous"
	}
	return "Assessed"
}
