package taxcalc

import (
	"math"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
)

// EITCQualifyingAge is the age limit for an EITC qualifying child (students
// and disabled dependents are not modeled).
const EITCQualifyingAge = 19

// QualifyingChildren counts dependents younger than maxAge at year end.
func QualifyingChildren(dependents []model.Dependent, taxYear, maxAge int) int {
	n := 0
	for _, d := range dependents {
		age := d.AgeAtYearEnd(taxYear)
		if age >= 0 && age < maxAge {
			n++
		}
	}
	return n
}

// ChildTaxCredit is the per-child credit reduced by a fixed amount for each
// step (or part of a step) of AGI above the status threshold.
func ChildTaxCredit(table *rules.YearTable, status model.FilingStatus, agi float64, children int) float64 {
	if children <= 0 {
		return 0
	}
	ctc := table.ChildTaxCredit

	credit := ctc.PerChild * float64(children)
	if excess := agi - ctc.PhaseoutThreshold.For(status); excess > 0 && ctc.StepSize > 0 {
		steps := math.Ceil(excess / ctc.StepSize)
		credit -= steps * ctc.ReductionPerStep
	}
	return cents(math.Max(credit, 0))
}

// EarnedIncomeCredit evaluates the phase-in, plateau and phase-out curve for
// the number of qualifying children. Married filing separately never
// qualifies.
func EarnedIncomeCredit(table *rules.YearTable, status model.FilingStatus, earned float64, children int) float64 {
	if status == model.FilingMarriedSeparately || earned <= 0 {
		return 0
	}
	schedule, ok := table.EITCFor(children)
	if !ok {
		return 0
	}

	credit := math.Min(earned*schedule.PhaseInRate, schedule.MaxCredit)
	if begin := schedule.PhaseoutBegin(status); earned > begin {
		credit = math.Min(credit, schedule.MaxCredit-(earned-begin)*schedule.PhaseoutRate)
	}
	return cents(math.Max(credit, 0))
}

// AmericanOpportunityCredit is the tiered education credit for one student,
// scaled linearly to zero across the AGI phase-out band.
func AmericanOpportunityCredit(table *rules.YearTable, status model.FilingStatus, agi, expenses float64) float64 {
	if status == model.FilingMarriedSeparately || expenses <= 0 {
		return 0
	}
	aotc := table.AOTC

	full := math.Min(expenses, aotc.FullRateExpenses)
	partial := math.Min(math.Max(expenses-aotc.FullRateExpenses, 0), aotc.PartialExpenses)
	credit := math.Min(full+partial*aotc.PartialRate, aotc.MaxCredit)

	band, ok := aotc.PhaseoutFor(status)
	if !ok {
		return cents(credit)
	}
	switch {
	case agi <= band.Start:
	case agi >= band.End:
		credit = 0
	default:
		credit *= (band.End - agi) / (band.End - band.Start)
	}
	return cents(credit)
}
