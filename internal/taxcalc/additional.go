package taxcalc

import (
	"math"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
)

// SelfEmployment computes SE tax on net self-employment income.
func SelfEmployment(table *rules.YearTable, status model.FilingStatus, income float64) model.SelfEmploymentTax {
	if income <= 0 {
		return model.SelfEmploymentTax{}
	}
	se := table.SelfEmployment

	net := income * se.NetEarningsFactor
	result := model.SelfEmploymentTax{
		NetEarnings:        cents(net),
		SocialSecurity:     cents(se.SocialSecurityRate * math.Min(net, se.SocialSecurityWageBase)),
		Medicare:           cents(se.MedicareRate * net),
		AdditionalMedicare: cents(se.AdditionalMedicareRate * math.Max(net-se.AdditionalMedicareThreshold.For(status), 0)),
	}
	result.Total = cents(result.SocialSecurity + result.Medicare + result.AdditionalMedicare)
	return result
}

// SelfEmploymentDelta is the change in SE tax when SE income moves by delta.
func SelfEmploymentDelta(table *rules.YearTable, status model.FilingStatus, income, delta float64) float64 {
	before := SelfEmployment(table, status, income)
	after := SelfEmployment(table, status, income+delta)
	return cents(after.Total - before.Total)
}

// AMT computes the alternative minimum tax. Liability is only the excess of
// the tentative minimum tax over the regular tax and is never negative.
func AMT(table *rules.YearTable, status model.FilingStatus, amtIncome, regularTax float64) model.AMTResult {
	amt := table.AMT

	exemption := amt.Exemption.For(status) - amt.PhaseoutRate*math.Max(amtIncome-amt.PhaseoutStart.For(status), 0)
	exemption = math.Max(exemption, 0)

	base := math.Max(amtIncome-exemption, 0)
	threshold := amt.UpperThreshold.For(status)

	var tentative float64
	if base <= threshold {
		tentative = base * amt.LowerRate
	} else {
		tentative = threshold*amt.LowerRate + (base-threshold)*amt.UpperRate
	}

	result := model.AMTResult{
		AMTIncome:    cents(amtIncome),
		Exemption:    cents(exemption),
		TentativeTax: cents(tentative),
		RegularTax:   cents(regularTax),
	}
	result.Liability = cents(math.Max(result.TentativeTax-result.RegularTax, 0))
	return result
}
