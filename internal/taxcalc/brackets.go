package taxcalc

import (
	"math"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/shopspring/decimal"
)

// ProgressiveTax walks the ordered brackets and taxes the slice of income
// that falls inside each one. Each bracket's tax is rounded to cents before
// it is accumulated. Income at or below zero owes nothing.
func ProgressiveTax(brackets []rules.Bracket, income float64) (float64, []model.BracketTax) {
	if income <= 0 || len(brackets) == 0 {
		return 0, nil
	}

	total := decimal.Zero
	breakdown := make([]model.BracketTax, 0, len(brackets))
	for _, b := range brackets {
		if income <= b.Min {
			break
		}
		portion := math.Min(income, b.Upper()) - b.Min
		tax := decimal.NewFromFloat(portion).Mul(decimal.NewFromFloat(b.Rate)).Round(2)
		total = total.Add(tax)

		breakdown = append(breakdown, model.BracketTax{
			Min:           b.Min,
			Max:           b.Max,
			Rate:          b.Rate,
			TaxableAmount: cents(portion),
			Tax:           tax.InexactFloat64(),
		})
	}
	return total.InexactFloat64(), breakdown
}

// MarginalRate is the rate of the bracket holding the last dollar of
// taxable income, or zero when there is no taxable income.
func MarginalRate(brackets []rules.Bracket, taxable float64) float64 {
	if taxable <= 0 {
		return 0
	}
	for _, b := range brackets {
		if b.Contains(taxable) {
			return b.Rate
		}
	}
	return 0
}

// FederalTax is ProgressiveTax over the year's table for the filing status.
func FederalTax(table *rules.YearTable, status model.FilingStatus, taxable float64) (float64, []model.BracketTax) {
	return ProgressiveTax(table.BracketsFor(status), taxable)
}

// TaxImpact estimates how much federal income tax changes when AGI moves by
// delta, assuming the standard deduction on both sides. A negative result
// means the adjusted return owes less.
func TaxImpact(table *rules.YearTable, status model.FilingStatus, agi, delta float64) float64 {
	std := table.StandardDeduction.For(status)
	before, _ := FederalTax(table, status, math.Max(agi-std, 0))
	after, _ := FederalTax(table, status, math.Max(agi+delta-std, 0))
	return cents(after - before)
}

func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
