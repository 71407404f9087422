package transcript

import (
	"testing"
	"time"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/service"
	"github.com/Veraticus/transcript-recon/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) *model.ParsedTranscript {
	t.Helper()
	parsed, err := NewParser(2023).Parse(Document{Source: "test.txt", Text: text})
	require.NoError(t, err)
	return parsed
}

func TestParse_WageAndIncome(t *testing.T) {
	text := testutil.NewWageAndIncome(2022).
		WithTaxpayer("JOHN  Q  PUBLIC", "9876").
		WithW2("ACME CORP", 52000, 6100).
		WithForm("1099-INT", "FIRST BANK", "Interest income", 350).
		WithForm("1099-NEC", "CLIENT LLC", "Nonemployee compensation", 12000).
		Unreported().
		String()

	got := parse(t, text)

	assert.Equal(t, model.KindIncomeSource, got.Kind)
	assert.Nil(t, got.Account)
	assert.Equal(t, 2022, got.TaxYear)
	assert.False(t, got.TaxYearDefaulted)
	assert.Equal(t, "9876", got.Taxpayer.SSNLastFour)
	assert.Equal(t, "JOHN Q PUBLIC", got.Taxpayer.Name)
	assert.Empty(t, got.Warnings)

	require.Len(t, got.Income, 3)

	w2 := got.Income[0]
	assert.Equal(t, model.FormW2, w2.Form)
	assert.Equal(t, model.CategoryWages, w2.Category)
	assert.Equal(t, "ACME CORP", w2.Payer)
	assert.InDelta(t, 52000, w2.Amount, 0.001)
	assert.InDelta(t, 6100, w2.Withholding, 0.001)
	assert.False(t, w2.Unreported)

	assert.Equal(t, model.Form1099INT, got.Income[1].Form)
	assert.Equal(t, model.CategoryInterest, got.Income[1].Category)
	assert.InDelta(t, 350, got.Income[1].Amount, 0.001)

	nec := got.Income[2]
	assert.Equal(t, model.Form1099NEC, nec.Form)
	assert.Equal(t, model.CategorySelfEmployment, nec.Category)
	assert.True(t, nec.Unreported)

	totals, withholding := got.Totals()
	assert.InDelta(t, 52000, totals[model.CategoryWages], 0.001)
	assert.InDelta(t, 6100, withholding, 0.001)
}

func TestParse_AccountOfRecord(t *testing.T) {
	text := testutil.NewAccountTranscript(2023).
		WithFilingStatus("Married Filing Jointly").
		WithLine("Adjusted gross income", 64350).
		WithLine("Taxable income", 50500).
		WithLine("Tax per return", 6000).
		WithLine("Account balance", 0).
		WithLine("Wages, salaries, tips", 52000).
		WithLine("Taxable interest income", 350).
		WithLine("Accrued interest", 12.5).
		WithLine("Standard deduction", 27700).
		WithLine("Child tax credit", 2000).
		WithTransaction("150", "Tax return filed", "04-15-2024", 6000).
		WithTransaction("806", "W-2 or 1099 withholding", "04-15-2024", -6100).
		WithTransaction("166", "Penalty for late filing", "05-20-2024", 250).
		WithTransaction("167", "Abated penalty for late filing", "09-01-2024", -250).
		WithTransaction("276", "Penalty for late payment of tax", "05-20-2024", 100).
		WithTransaction("660", "Estimated tax payment", "06-20-2023", -1000).
		WithRawTransaction("846 Refund issued 20241605 05-06-2024 -$100.00").
		String()

	got := parse(t, text)

	assert.Equal(t, model.KindAccountOfRecord, got.Kind)
	assert.Equal(t, 2023, got.TaxYear)
	assert.Equal(t, model.FilingMarriedJointly, got.Taxpayer.FilingStatus)
	assert.Empty(t, got.Warnings)

	require.NotNil(t, got.Account)
	require.NotNil(t, got.Account.AdjustedGrossIncome)
	assert.InDelta(t, 64350, *got.Account.AdjustedGrossIncome, 0.001)
	require.NotNil(t, got.Account.TaxableIncome)
	assert.InDelta(t, 50500, *got.Account.TaxableIncome, 0.001)
	require.NotNil(t, got.Account.TaxPerReturn)
	assert.InDelta(t, 6000, *got.Account.TaxPerReturn, 0.001)
	require.NotNil(t, got.Account.AccountBalance)
	assert.Zero(t, *got.Account.AccountBalance)
	assert.InDelta(t, 6100, got.Account.Withholding, 0.001)

	require.Len(t, got.Income, 2)
	assert.Equal(t, model.CategoryWages, got.Income[0].Category)
	assert.Equal(t, model.FormReturn, got.Income[0].Form)
	assert.Equal(t, model.CategoryInterest, got.Income[1].Category)

	assert.InDelta(t, 27700, got.TotalDeductions(), 0.001)
	assert.InDelta(t, 2000, got.CreditTotal(model.CreditChildTax), 0.001)

	require.Len(t, got.Transactions, 7)
	refund := got.Transactions[6]
	assert.Equal(t, "846", refund.Code)
	assert.Equal(t, "20241605", refund.Cycle)
	assert.InDelta(t, -100, refund.Amount, 0.001)
	assert.Equal(t, time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC), refund.Date)

	require.Len(t, got.Penalties, 2)
	assert.Equal(t, model.PenaltyFailureToFile, got.Penalties[0].Kind)
	assert.True(t, got.Penalties[0].Abated)
	assert.Equal(t, model.PenaltyFailureToPay, got.Penalties[1].Kind)
	assert.False(t, got.Penalties[1].Abated)
	assert.InDelta(t, 100, got.Penalties[1].Amount, 0.001)

	require.Len(t, got.Payments, 2)
	assert.Equal(t, model.PaymentWithholding, got.Payments[0].Kind)
	assert.InDelta(t, 6100, got.Payments[0].Amount, 0.001)
	assert.Equal(t, model.PaymentEstimated, got.Payments[1].Kind)
}

func TestParse_FilingStatusCode(t *testing.T) {
	got := parse(t, testutil.NewAccountTranscript(2023).
		WithFilingStatus("4").
		WithLine("Adjusted gross income", 1000).
		WithLine("Wages", 1000).
		String())

	assert.Equal(t, model.FilingHeadOfHousehold, got.Taxpayer.FilingStatus)
}

func TestParse_UnknownType(t *testing.T) {
	text := testutil.NewWageAndIncome(2023).
		WithHeader("Quarterly Newsletter").
		WithW2("ACME", 1, 0).
		String()

	_, err := NewParser(2023).Parse(Document{Source: "mystery.txt", Text: text})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnknownTranscriptType)
	assert.Contains(t, err.Error(), "mystery.txt")
}

func TestParse_EmptyDocument(t *testing.T) {
	_, err := NewParser(2023).Parse(Document{Text: "  \n\t"})
	assert.ErrorIs(t, err, common.ErrEmptyDocument)
}

func TestParse_MissingYearDefaults(t *testing.T) {
	got := parse(t, testutil.NewWageAndIncome(0).
		WithoutYear().
		WithW2("ACME", 1000, 0).
		String())

	assert.Equal(t, 2023, got.TaxYear)
	assert.True(t, got.TaxYearDefaulted)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "assumed 2023")
}

func TestParse_TaxPeriodFormats(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{line: "Tax Period Requested: December, 2021", want: 2021},
		{line: "Tax Period Ending: Dec. 31, 2020", want: 2020},
		{line: "TAX PERIOD: 12-31-2024", want: 2024},
		{line: "Tax Year: 2022", want: 2022},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := parse(t, "Wage and Income Transcript\n"+tt.line+"\nForm W-2\nWages: $10.00\n")
			assert.Equal(t, tt.want, got.TaxYear)
			assert.False(t, got.TaxYearDefaulted)
		})
	}
}

func TestParse_MalformedLinesAreSkipped(t *testing.T) {
	text := testutil.NewAccountTranscript(2023).
		WithLine("Adjusted gross income", 50000).
		WithLine("Wages", 50000).
		WithTransaction("150", "Tax return filed", "04-15-2024", 5000).
		WithRawTransaction("290 Additional tax assessed 13-45-2024 $300.00").
		WithRawTransaction("766 Credit to your account").
		WithTransaction("276", "Penalty for late payment", "05-20-2024", 40).
		String() +
		"\nForm 1099-INT\nPayer: BANK\nInterest income: $12x.00\n"

	got := parse(t, text)

	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "150", got.Transactions[0].Code)
	assert.Equal(t, "276", got.Transactions[1].Code)
	require.Len(t, got.Income, 1)

	require.Len(t, got.Warnings, 4)
	assert.Contains(t, got.Warnings[0], "transaction 290")
	assert.Contains(t, got.Warnings[1], "malformed transaction line")
	assert.Contains(t, got.Warnings[2], "malformed amount")
	assert.Contains(t, got.Warnings[3], "no income amount")
}

func TestParse_AccountWarnings(t *testing.T) {
	got := parse(t, testutil.NewAccountTranscript(2023).
		WithTransaction("150", "Tax return filed", "04-15-2024", 0).
		String())

	assert.Contains(t, got.Warnings, "no income items found")
	assert.Contains(t, got.Warnings, "adjusted gross income not found")
}

func TestParse_SectionHints(t *testing.T) {
	doc := Document{
		Source: "sections.pdf",
		Sections: []service.Section{
			{Title: "Account Transcript", Text: "Tax Period Ending: Dec. 31, 2022"},
			{Title: "Income", Text: "Adjusted gross income: $40,000.00\nWages: $40,000.00"},
		},
	}

	got, err := NewParser(2023).Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, model.KindAccountOfRecord, got.Kind)
	assert.Equal(t, 2022, got.TaxYear)
	require.NotNil(t, got.Account.AdjustedGrossIncome)
	assert.InDelta(t, 40000, *got.Account.AdjustedGrossIncome, 0.001)
	require.Len(t, got.Income, 1)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		text     string
		sections []service.Section
		want     model.TranscriptKind
		wantErr  bool
	}{
		{text: "WAGE AND INCOME TRANSCRIPT", want: model.KindIncomeSource},
		{text: "Wage & Income Transcript", want: model.KindIncomeSource},
		{text: "Record of Account", want: model.KindAccountOfRecord},
		{text: "Tax Return Transcript", want: model.KindAccountOfRecord},
		{text: "", sections: []service.Section{{Title: "Account Transcript"}}, want: model.KindAccountOfRecord},
		{text: "Form 1040 instructions", wantErr: true},
	}
	for _, tt := range tests {
		got, err := DetectKind(tt.text, tt.sections)
		if tt.wantErr {
			assert.ErrorIs(t, err, common.ErrUnknownTranscriptType)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestNormalizeForm(t *testing.T) {
	assert.Equal(t, model.FormW2, normalizeForm("W2"))
	assert.Equal(t, model.FormW2, normalizeForm("w-2"))
	assert.Equal(t, model.Form1099INT, normalizeForm("1099int"))
	assert.Equal(t, model.Form1099NEC, normalizeForm("1099-NEC"))
	assert.Equal(t, model.FormSSA1099, normalizeForm("ssa-1099"))
}
