package taxcalc

import (
	"math"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
)

// SelectDeduction compares the standard deduction with the itemized total
// and keeps the larger one. Ties go to the standard deduction.
func SelectDeduction(table *rules.YearTable, status model.FilingStatus, agi float64, itemized *model.ItemizedDeductions, opts Options) model.DeductionResult {
	result := model.DeductionResult{
		Method:   model.DeductionMethodStandard,
		Standard: table.StandardDeduction.For(status),
	}
	result.Amount = result.Standard

	if itemized == nil {
		return result
	}

	base := math.Max(agi, 0)
	salt := math.Min(math.Max(itemized.StateAndLocalTaxes, 0), table.SALTCap)
	charitable := math.Min(math.Max(itemized.Charitable, 0), base*opts.charitableCap(table))
	medical := math.Max(itemized.Medical-base*opts.medicalFloor(table), 0)

	result.SALT = cents(salt)
	result.Itemized = cents(salt + math.Max(itemized.MortgageInterest, 0) + charitable + medical + math.Max(itemized.Other, 0))

	if result.Itemized > result.Standard {
		result.Method = model.DeductionMethodItemized
		result.Amount = result.Itemized
	}
	return result
}
