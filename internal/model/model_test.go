package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilingStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want FilingStatus
		ok   bool
	}{
		{"1", FilingSingle, true},
		{"Single", FilingSingle, true},
		{"Single (1)", FilingSingle, true},
		{"MARRIED FILING JOINTLY", FilingMarriedJointly, true},
		{"married-filing-separately", FilingMarriedSeparately, true},
		{"HOH", FilingHeadOfHousehold, true},
		{"4", FilingHeadOfHousehold, true},
		{"Qualifying Widow(er)", FilingQualifyingSurvivingSpouse, true},
		{"qualifying surviving spouse", FilingQualifyingSurvivingSpouse, true},
		{"", "", false},
		{"divorced", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseFilingStatus(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilingStatusHelpers(t *testing.T) {
	assert.True(t, FilingHeadOfHousehold.IsValid())
	assert.False(t, FilingStatus("widowed").IsValid())
	assert.Equal(t, FilingSingle, FilingStatus("widowed").Normalize())
	assert.True(t, FilingQualifyingSurvivingSpouse.IsJoint())
	assert.False(t, FilingMarriedSeparately.IsJoint())
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, 0, Severity("").Rank())
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityHigh, SeverityLow))
	assert.Equal(t, SeverityMedium, MaxSeverity(SeverityLow, SeverityMedium))
}

func TestComputeStatute(t *testing.T) {
	asOf := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

	refund := ComputeStatute(2021, StatuteRefund, asOf)
	assert.Equal(t, time.Date(2022, time.April, 15, 0, 0, 0, 0, time.UTC), refund.FilingDeadline)
	assert.Equal(t, time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC), refund.Deadline)
	assert.Equal(t, 90, refund.DaysRemaining)
	assert.False(t, refund.Expired)

	expired := ComputeStatute(2020, StatuteRefund, asOf)
	assert.True(t, expired.Expired)
	assert.Equal(t, -275, expired.DaysRemaining)

	collection := ComputeStatute(2020, StatuteCollection, asOf)
	assert.Equal(t, 2031, collection.Deadline.Year())
	assert.False(t, collection.Expired)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, time.March, 9, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, time.March, 11, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, -2, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestPenaltyItem_AbatementEligible(t *testing.T) {
	tests := []struct {
		name    string
		penalty PenaltyItem
		want    bool
	}{
		{"failure to file", PenaltyItem{Kind: PenaltyFailureToFile, Amount: 100}, true},
		{"estimated tax", PenaltyItem{Kind: PenaltyEstimatedTax, Amount: 40}, true},
		{"already abated", PenaltyItem{Kind: PenaltyFailureToPay, Amount: 100, Abated: true}, false},
		{"zero amount", PenaltyItem{Kind: PenaltyFailureToPay}, false},
		{"bad check", PenaltyItem{Kind: PenaltyBadCheck, Amount: 25}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.penalty.AbatementEligible())
		})
	}
}

func TestParsedTranscript_Totals(t *testing.T) {
	income := &ParsedTranscript{
		Kind: KindIncomeSource,
		Income: []IncomeItem{
			{Form: FormW2, Category: CategoryWages, Amount: 50000, Withholding: 5000},
			{Form: FormW2, Category: CategoryWages, Amount: 2000, Withholding: 100},
			{Form: Form1099NEC, Category: CategorySelfEmployment, Amount: 12000},
		},
	}
	totals, withholding := income.Totals()
	assert.InDelta(t, 52000, totals[CategoryWages], 0.001)
	assert.InDelta(t, 12000, totals[CategorySelfEmployment], 0.001)
	assert.InDelta(t, 5100, withholding, 0.001)
	assert.InDelta(t, 64000, income.TotalIncome(), 0.001)

	account := &ParsedTranscript{
		Kind:    KindAccountOfRecord,
		Account: &AccountSummary{Withholding: 6100},
		Income:  []IncomeItem{{Form: FormReturn, Category: CategoryWages, Amount: 52000, Withholding: 10}},
	}
	_, withholding = account.Totals()
	assert.InDelta(t, 6100, withholding, 0.001)
}

func TestParsedTranscript_TotalDeductions(t *testing.T) {
	components := &ParsedTranscript{Deductions: []DeductionItem{
		{Kind: DeductionSALT, Amount: 10000},
		{Kind: DeductionMortgage, Amount: 8000},
	}}
	assert.InDelta(t, 18000, components.TotalDeductions(), 0.001)

	withTotal := &ParsedTranscript{Deductions: []DeductionItem{
		{Kind: DeductionSALT, Amount: 10000},
		{Kind: DeductionItemized, Amount: 21000},
	}}
	assert.InDelta(t, 21000, withTotal.TotalDeductions(), 0.001)
}

func TestParsedTranscript_CloneIsIndependent(t *testing.T) {
	agi := 52000.0
	orig := &ParsedTranscript{
		Kind:         KindAccountOfRecord,
		TaxYear:      2022,
		Account:      &AccountSummary{AdjustedGrossIncome: &agi},
		Income:       []IncomeItem{{Category: CategoryWages, Amount: 1}},
		Transactions: []TransactionCode{{Code: "150"}},
	}

	c := orig.Clone()
	c.Income[0].Unreported = true
	c.Account.Withholding = 99
	c.Transactions = append(c.Transactions, TransactionCode{Code: "846"})

	assert.False(t, orig.Income[0].Unreported)
	assert.Zero(t, orig.Account.Withholding)
	assert.True(t, orig.HasTransaction("150"))
	assert.False(t, orig.HasTransaction("846"))
	assert.True(t, c.HasTransaction("846"))
}

func TestParsedTranscript_Label(t *testing.T) {
	assert.Equal(t, "wi.pdf (income_source 2022)", (&ParsedTranscript{Source: "wi.pdf", Kind: KindIncomeSource, TaxYear: 2022}).Label())
	assert.Equal(t, "account_of_record 2021", (&ParsedTranscript{Kind: KindAccountOfRecord, TaxYear: 2021}).Label())
}

func TestAnalysisResult_TotalFindings(t *testing.T) {
	r := &AnalysisResult{Years: []YearAnalysis{
		{Findings: make([]Finding, 2)},
		{},
		{Findings: make([]Finding, 3)},
	}}
	require.Equal(t, 5, r.TotalFindings())
	assert.Equal(t, 0, (&AnalysisResult{}).TotalFindings())
}

func TestFormType_IsBusiness(t *testing.T) {
	assert.True(t, Form1099NEC.IsBusiness())
	assert.True(t, Form1099K.IsBusiness())
	assert.False(t, FormW2.IsBusiness())
	assert.False(t, Form1099INT.IsBusiness())
}
