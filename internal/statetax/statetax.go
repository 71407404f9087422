// Package statetax applies the simplified state income tax table.
package statetax

import (
	"log/slog"
	"math"
	"strings"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
	"github.com/shopspring/decimal"
)

// Calculate computes state tax on income after the state standard deduction.
// A code missing from the table yields zero tax with Modeled set to false;
// callers decide whether to surface that as a warning.
func Calculate(book *rules.Book, code string, income float64) model.StateTaxResult {
	code = strings.ToUpper(strings.TrimSpace(code))

	rule, ok := book.State(code)
	if !ok {
		slog.Debug("State not modeled, assuming no state tax", "state", code)
		return model.StateTaxResult{State: code, Kind: string(rules.StateNoTax)}
	}

	result := model.StateTaxResult{
		State:             rule.Code,
		Kind:              string(rule.Kind),
		StandardDeduction: rule.StandardDeduction,
		Modeled:           true,
	}

	switch rule.Kind {
	case rules.StateNoTax:
		return result
	case rules.StateFlat:
		result.TaxableIncome = taxableIncome(income, rule.StandardDeduction)
		result.Tax = decimal.NewFromFloat(result.TaxableIncome).
			Mul(decimal.NewFromFloat(rule.FlatRate)).
			Round(2).
			InexactFloat64()
	case rules.StateProgressive:
		result.TaxableIncome = taxableIncome(income, rule.StandardDeduction)
		result.Tax, result.Breakdown = taxcalc.ProgressiveTax(rule.Brackets, result.TaxableIncome)
	}
	return result
}

func taxableIncome(income, deduction float64) float64 {
	return decimal.NewFromFloat(math.Max(income-deduction, 0)).Round(2).InexactFloat64()
}
