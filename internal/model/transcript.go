// Package model defines the transcript, tax and analysis types shared by every
// stage of the pipeline.
package model

import (
	"fmt"
	"time"
)

// TranscriptKind discriminates the two IRS transcript families.
type TranscriptKind string

// Transcript kinds.
const (
	// KindIncomeSource is the wage-and-income transcript: third-party reported income.
	KindIncomeSource TranscriptKind = "income_source"
	// KindAccountOfRecord is the record-of-account transcript: what was filed plus account activity.
	KindAccountOfRecord TranscriptKind = "account_of_record"
)

// IsValid reports whether the kind is a known transcript kind.
func (k TranscriptKind) IsValid() bool {
	switch k {
	case KindIncomeSource, KindAccountOfRecord:
		return true
	}
	return false
}

// IncomeCategory groups income items for cross-document comparison.
type IncomeCategory string

// Income categories.
const (
	CategoryWages          IncomeCategory = "wages"
	CategoryInterest       IncomeCategory = "interest"
	CategoryDividends      IncomeCategory = "dividends"
	CategorySelfEmployment IncomeCategory = "self_employment"
	CategoryUnemployment   IncomeCategory = "unemployment"
	CategoryRetirement     IncomeCategory = "retirement"
	CategoryCapitalGains   IncomeCategory = "capital_gains"
	CategorySocialSecurity IncomeCategory = "social_security"
	CategoryOther          IncomeCategory = "other"
)

// FormType names the information return or return line an item came from.
type FormType string

// Form types recognized by the parser.
const (
	FormW2       FormType = "W-2"
	Form1099INT  FormType = "1099-INT"
	Form1099DIV  FormType = "1099-DIV"
	Form1099NEC  FormType = "1099-NEC"
	Form1099MISC FormType = "1099-MISC"
	Form1099G    FormType = "1099-G"
	Form1099R    FormType = "1099-R"
	Form1099B    FormType = "1099-B"
	Form1099K    FormType = "1099-K"
	FormSSA1099  FormType = "SSA-1099"
	FormReturn   FormType = "1040"
	FormSchedC   FormType = "SCHEDULE-C"
)

// IsBusiness reports whether income from this form is self-employment style income.
func (f FormType) IsBusiness() bool {
	switch f {
	case Form1099NEC, Form1099K, FormSchedC:
		return true
	}
	return false
}

// TaxpayerInfo identifies the taxpayer on a transcript. Only the last four
// SSN digits are ever retained.
type TaxpayerInfo struct {
	Name         string       `json:"name"`
	SSNLastFour  string       `json:"ssn_last_four"`
	FilingStatus FilingStatus `json:"filing_status,omitempty"`
}

// IncomeItem is one reported income record.
type IncomeItem struct {
	Form        FormType       `json:"form"`
	Category    IncomeCategory `json:"category"`
	Payer       string         `json:"payer,omitempty"`
	Amount      float64        `json:"amount"`
	Withholding float64        `json:"withholding"`
	Unreported  bool           `json:"unreported"`
}

// DeductionKind identifies a deduction line.
type DeductionKind string

// Deduction kinds.
const (
	DeductionStandard   DeductionKind = "standard"
	DeductionItemized   DeductionKind = "itemized_total"
	DeductionSALT       DeductionKind = "salt"
	DeductionMortgage   DeductionKind = "mortgage_interest"
	DeductionCharitable DeductionKind = "charitable"
	DeductionMedical    DeductionKind = "medical"
	DeductionOther      DeductionKind = "other"
)

// DeductionItem is one deduction line from a filed return.
type DeductionItem struct {
	Kind   DeductionKind `json:"kind"`
	Amount float64       `json:"amount"`
}

// CreditKind identifies a credit line.
type CreditKind string

// Credit kinds.
const (
	CreditChildTax     CreditKind = "child_tax_credit"
	CreditEarnedIncome CreditKind = "earned_income_credit"
	CreditEducation    CreditKind = "education_credit"
	CreditOther        CreditKind = "other"
)

// CreditItem is one credit line from a filed return or account activity.
type CreditItem struct {
	Kind   CreditKind `json:"kind"`
	Amount float64    `json:"amount"`
}

// PaymentKind distinguishes how tax was paid.
type PaymentKind string

// Payment kinds.
const (
	PaymentWithholding PaymentKind = "withholding"
	PaymentEstimated   PaymentKind = "estimated"
	PaymentWithReturn  PaymentKind = "with_return"
	PaymentSubsequent  PaymentKind = "subsequent"
)

// PaymentItem is a payment credited to the account.
type PaymentItem struct {
	Date   time.Time   `json:"date"`
	Kind   PaymentKind `json:"kind"`
	Code   string      `json:"code"`
	Amount float64     `json:"amount"`
}

// PenaltyKind identifies the penalty family.
type PenaltyKind string

// Penalty kinds.
const (
	PenaltyFailureToFile PenaltyKind = "failure_to_file"
	PenaltyFailureToPay  PenaltyKind = "failure_to_pay"
	PenaltyEstimatedTax  PenaltyKind = "estimated_tax"
	PenaltyBadCheck      PenaltyKind = "bad_check"
	PenaltyMiscellaneous PenaltyKind = "miscellaneous"
)

// PenaltyItem is an assessed penalty.
type PenaltyItem struct {
	Date   time.Time   `json:"date"`
	Kind   PenaltyKind `json:"kind"`
	Code   string      `json:"code"`
	Amount float64     `json:"amount"`
	Abated bool        `json:"abated"`
}

// AbatementEligible reports whether the penalty is still standing and of a
// kind that first-time or reasonable-cause relief can remove.
func (p PenaltyItem) AbatementEligible() bool {
	if p.Abated || p.Amount <= 0 {
		return false
	}
	switch p.Kind {
	case PenaltyFailureToFile, PenaltyFailureToPay, PenaltyEstimatedTax, PenaltyMiscellaneous:
		return true
	case PenaltyBadCheck:
		return false
	}
	return false
}

// TransactionCode is a single line of account activity.
type TransactionCode struct {
	Date        time.Time `json:"date"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Cycle       string    `json:"cycle,omitempty"`
	Amount      float64   `json:"amount"`
}

// AccountSummary is the payload carried only by account-of-record transcripts.
type AccountSummary struct {
	AdjustedGrossIncome *float64 `json:"adjusted_gross_income,omitempty"`
	TaxableIncome       *float64 `json:"taxable_income,omitempty"`
	TaxPerReturn        *float64 `json:"tax_per_return,omitempty"`
	AccountBalance      *float64 `json:"account_balance,omitempty"`
	Withholding         float64  `json:"withholding"`
}

// ParsedTranscript is the structured form of one transcript for one tax year.
// It is never mutated after parsing; helpers that need an altered view return
// a copy.
type ParsedTranscript struct {
	Account          *AccountSummary   `json:"account,omitempty"`
	Source           string            `json:"source,omitempty"`
	Kind             TranscriptKind    `json:"kind"`
	Taxpayer         TaxpayerInfo      `json:"taxpayer"`
	Income           []IncomeItem      `json:"income"`
	Deductions       []DeductionItem   `json:"deductions"`
	Credits          []CreditItem      `json:"credits"`
	Payments         []PaymentItem     `json:"payments"`
	Penalties        []PenaltyItem     `json:"penalties"`
	Transactions     []TransactionCode `json:"transactions"`
	Warnings         []string          `json:"warnings,omitempty"`
	TaxYear          int               `json:"tax_year"`
	TaxYearDefaulted bool              `json:"tax_year_defaulted"`
}

// CategoryTotals are per-category amounts used for cross-document comparison.
type CategoryTotals map[IncomeCategory]float64

// Totals sums income by category. Withholding is returned separately.
func (t *ParsedTranscript) Totals() (CategoryTotals, float64) {
	totals := make(CategoryTotals)
	var withholding float64
	for _, item := range t.Income {
		totals[item.Category] += item.Amount
		withholding += item.Withholding
	}
	if t.Kind == KindAccountOfRecord && t.Account != nil && t.Account.Withholding > 0 {
		withholding = t.Account.Withholding
	}
	return totals, withholding
}

// TotalIncome is the sum of every income item.
func (t *ParsedTranscript) TotalIncome() float64 {
	var total float64
	for _, item := range t.Income {
		total += item.Amount
	}
	return total
}

// TotalDeductions returns the deduction actually claimed. An itemized or
// standard total line wins over the sum of component lines.
func (t *ParsedTranscript) TotalDeductions() float64 {
	var components float64
	for _, d := range t.Deductions {
		switch d.Kind {
		case DeductionStandard, DeductionItemized:
			return d.Amount
		case DeductionSALT, DeductionMortgage, DeductionCharitable, DeductionMedical, DeductionOther:
			components += d.Amount
		}
	}
	return components
}

// CreditTotal sums credits of one kind.
func (t *ParsedTranscript) CreditTotal(kind CreditKind) float64 {
	var total float64
	for _, c := range t.Credits {
		if c.Kind == kind {
			total += c.Amount
		}
	}
	return total
}

// HasTransaction reports whether any transaction carries the code.
func (t *ParsedTranscript) HasTransaction(code string) bool {
	for _, tc := range t.Transactions {
		if tc.Code == code {
			return true
		}
	}
	return false
}

// Label is a short human identifier for logs and warnings.
func (t *ParsedTranscript) Label() string {
	if t.Source != "" {
		return fmt.Sprintf("%s (%s %d)", t.Source, t.Kind, t.TaxYear)
	}
	return fmt.Sprintf("%s %d", t.Kind, t.TaxYear)
}

// Clone returns a deep copy so callers can derive an altered view without
// touching the parsed original.
func (t *ParsedTranscript) Clone() *ParsedTranscript {
	c := *t
	c.Income = append([]IncomeItem(nil), t.Income...)
	c.Deductions = append([]DeductionItem(nil), t.Deductions...)
	c.Credits = append([]CreditItem(nil), t.Credits...)
	c.Payments = append([]PaymentItem(nil), t.Payments...)
	c.Penalties = append([]PenaltyItem(nil), t.Penalties...)
	c.Transactions = append([]TransactionCode(nil), t.Transactions...)
	c.Warnings = append([]string(nil), t.Warnings...)
	if t.Account != nil {
		acct := *t.Account
		c.Account = &acct
	}
	return &c
}
