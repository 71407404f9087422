package discrepancy

import (
	"testing"
	"time"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func incomeSource(year int, items ...model.IncomeItem) *model.ParsedTranscript {
	return &model.ParsedTranscript{
		Kind:     model.KindIncomeSource,
		TaxYear:  year,
		Taxpayer: model.TaxpayerInfo{Name: "JANE DOE", SSNLastFour: "1234"},
		Income:   items,
	}
}

func account(year int, agi, withholding float64, items ...model.IncomeItem) *model.ParsedTranscript {
	return &model.ParsedTranscript{
		Kind:     model.KindAccountOfRecord,
		TaxYear:  year,
		Taxpayer: model.TaxpayerInfo{Name: "JANE DOE", SSNLastFour: "1234", FilingStatus: model.FilingSingle},
		Income:   items,
		Account:  &model.AccountSummary{AdjustedGrossIncome: &agi, Withholding: withholding},
	}
}

func wages(amount, withheld float64) model.IncomeItem {
	return model.IncomeItem{Form: model.FormW2, Category: model.CategoryWages, Amount: amount, Withholding: withheld}
}

func item(category model.IncomeCategory, form model.FormType, amount float64) model.IncomeItem {
	return model.IncomeItem{Form: form, Category: category, Amount: amount}
}

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	book, err := rules.Default()
	require.NoError(t, err)
	return New(book, 0)
}

func TestAnalyze_IdenticalTranscriptsHaveNoFindings(t *testing.T) {
	a := newAnalyzer(t)
	reported := incomeSource(2023, wages(60000, 6100), item(model.CategoryInterest, model.Form1099INT, 250))
	filed := account(2023, 60250, 6100, wages(60000, 0), item(model.CategoryInterest, model.FormReturn, 250))

	findings, err := a.Analyze(reported, filed, model.FilingSingle, asOf)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyze_UnderreportedIncomeIsExposure(t *testing.T) {
	a := newAnalyzer(t)
	reported := incomeSource(2023, wages(60000, 6100), item(model.CategoryInterest, model.Form1099INT, 1500))
	filed := account(2023, 60000, 6100, wages(60000, 0))

	findings, err := a.Analyze(reported, filed, model.FilingSingle, asOf)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, model.FindingIncomeDiscrepancy, f.Type)
	assert.Equal(t, model.CategoryInterest, f.Category)
	assert.InDelta(t, 1500, f.Difference, 0.001)
	assert.InDelta(t, 330, f.TaxImpact, 0.001)
	assert.Zero(t, f.PotentialRefund)
	assert.Equal(t, model.SeverityMedium, f.Severity)
	assert.Equal(t, model.StatuteAssessment, f.Statute.Kind)
	assert.Equal(t, 2023, f.Statute.TaxYear)
	assert.NotEmpty(t, f.Evidence)
}

func TestAnalyze_OverstatedIncomeIsRefund(t *testing.T) {
	a := newAnalyzer(t)
	reported := incomeSource(2023, wages(60000, 6100))
	filed := account(2023, 62000, 6100, wages(62000, 0))

	findings, err := a.Analyze(reported, filed, model.FilingSingle, asOf)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.InDelta(t, -2000, f.Difference, 0.001)
	assert.InDelta(t, -440, f.TaxImpact, 0.001)
	assert.InDelta(t, 440, f.PotentialRefund, 0.001)
	assert.Equal(t, model.StatuteRefund, f.Statute.Kind)
	assert.Equal(t, time.Date(2027, time.April, 15, 0, 0, 0, 0, time.UTC), f.Statute.Deadline)
	assert.False(t, f.Statute.Expired)
	assert.Equal(t, model.ConfidenceHigh, f.Confidence)
}

func TestAnalyze_Withholding(t *testing.T) {
	tests := []struct {
		name       string
		reported   float64
		credited   float64
		wantRefund float64
		wantKind   model.StatuteKind
		wantSev    model.Severity
	}{
		{name: "uncredited withholding", reported: 6100, credited: 5000, wantRefund: 1100, wantKind: model.StatuteRefund, wantSev: model.SeverityHigh},
		{name: "overclaimed withholding", reported: 5000, credited: 5200, wantRefund: 0, wantKind: model.StatuteAssessment, wantSev: model.SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalyzer(t)
			reported := incomeSource(2022, wages(60000, tt.reported))
			filed := account(2022, 60000, tt.credited, wages(60000, 0))

			findings, err := a.Analyze(reported, filed, model.FilingSingle, asOf)
			require.NoError(t, err)
			require.Len(t, findings, 1)

			f := findings[0]
			assert.Equal(t, model.FindingWithholdingDiscrepancy, f.Type)
			assert.InDelta(t, tt.wantRefund, f.PotentialRefund, 0.001)
			assert.Equal(t, tt.wantKind, f.Statute.Kind)
			assert.Equal(t, tt.wantSev, f.Severity)
		})
	}
}

func TestAnalyze_SelfEmploymentAddsSETax(t *testing.T) {
	a := newAnalyzer(t)
	reported := incomeSource(2023, wages(60000, 6100), item(model.CategorySelfEmployment, model.Form1099NEC, 10000))
	filed := account(2023, 60000, 6100, wages(60000, 0))

	findings, err := a.Analyze(reported, filed, model.FilingSingle, asOf)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, model.CategorySelfEmployment, f.Category)
	assert.Greater(t, f.TaxImpact, 2200.0)
	assert.Equal(t, model.SeverityHigh, f.Severity)
}

func TestAnalyze_BelowMaterialityIsIgnored(t *testing.T) {
	a := newAnalyzer(t)
	reported := incomeSource(2023, wages(60005, 6100))
	filed := account(2023, 60000, 6100, wages(60000, 0))

	findings, err := a.Analyze(reported, filed, model.FilingSingle, asOf)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyze_UnknownAccountWithholdingIsNotCompared(t *testing.T) {
	a := newAnalyzer(t)
	reported := incomeSource(2022, wages(60000, 6100))
	filed := account(2022, 60000, 0, wages(60000, 0))

	findings, err := a.Analyze(reported, filed, model.FilingSingle, asOf)
	require.NoError(t, err)
	assert.Empty(t, findings)

	filed.Payments = []model.PaymentItem{{Kind: model.PaymentWithholding, Code: "806", Amount: 0}}
	findings, err = a.Analyze(reported, filed, model.FilingSingle, asOf)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, model.FindingWithholdingDiscrepancy, findings[0].Type)
	assert.InDelta(t, 6100, findings[0].PotentialRefund, 0.001)
}

func TestAnalyze_FallsBackToFiledIncomeAndStatus(t *testing.T) {
	a := newAnalyzer(t)
	reported := incomeSource(2023, wages(60000, 0), item(model.CategoryInterest, model.Form1099INT, 1500))
	filed := account(2023, 0, 0, wages(60000, 0))
	filed.Account.AdjustedGrossIncome = nil

	findings, err := a.Analyze(reported, filed, "", asOf)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.InDelta(t, 330, findings[0].TaxImpact, 0.001)
}

func TestAnalyze_Rejects(t *testing.T) {
	a := newAnalyzer(t)

	_, err := a.Analyze(incomeSource(2022), account(2023, 0, 0), model.FilingSingle, asOf)
	assert.ErrorIs(t, err, common.ErrYearMismatch)

	_, err = a.Analyze(account(2023, 0, 0), account(2023, 0, 0), model.FilingSingle, asOf)
	assert.ErrorIs(t, err, common.ErrKindMismatch)

	_, err = a.Analyze(incomeSource(2015), account(2015, 0, 0), model.FilingSingle, asOf)
	assert.ErrorIs(t, err, rules.ErrRuleTableUnavailable)
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, model.SeverityHigh, severityFor(-501))
	assert.Equal(t, model.SeverityMedium, severityFor(500))
	assert.Equal(t, model.SeverityMedium, severityFor(101))
	assert.Equal(t, model.SeverityLow, severityFor(100))
}
