// Package taxcalc computes federal income tax from a year's rule table:
// progressive brackets, deduction choice, self-employment tax, AMT and the
// child, earned income and education credits. Everything here is a pure
// function of its inputs and a read-only rules.YearTable.
package taxcalc

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
)

// Options override the table's AGI-relative deduction limits. Zero values
// keep the table defaults.
type Options struct {
	CharitableAGICap float64 `mapstructure:"charitable_agi_cap" validate:"gte=0,lte=1"`
	MedicalAGIFloor  float64 `mapstructure:"medical_agi_floor" validate:"gte=0,lte=1"`
}

func (o Options) charitableCap(table *rules.YearTable) float64 {
	if o.CharitableAGICap > 0 {
		return o.CharitableAGICap
	}
	return table.CharitableAGICap
}

func (o Options) medicalFloor(table *rules.YearTable) float64 {
	if o.MedicalAGIFloor > 0 {
		return o.MedicalAGIFloor
	}
	return table.MedicalAGIFloor
}

// Input describes one return. GrossIncome includes any self-employment
// income; SelfEmploymentIncome only marks the part subject to SE tax.
type Input struct {
	EarnedIncome         *float64                  `json:"earned_income,omitempty"`
	Itemized             *model.ItemizedDeductions `json:"itemized,omitempty"`
	FilingStatus         model.FilingStatus        `json:"filing_status"`
	Dependents           []model.Dependent         `json:"dependents,omitempty"`
	TaxYear              int                       `json:"tax_year" validate:"required"`
	GrossIncome          float64                   `json:"gross_income"`
	Adjustments          float64                   `json:"adjustments" validate:"gte=0"`
	SelfEmploymentIncome float64                   `json:"self_employment_income"`
	EducationExpenses    float64                   `json:"education_expenses" validate:"gte=0"`
	AMTAddBacks          float64                   `json:"amt_add_backs" validate:"gte=0"`
}

// Calculator binds the rule book and deduction options.
type Calculator struct {
	book *rules.Book
	opts Options
}

// New creates a calculator over the given rule book.
func New(book *rules.Book, opts Options) *Calculator {
	return &Calculator{book: book, opts: opts}
}

// Table returns the rule table for a year.
func (c *Calculator) Table(year int) (*rules.YearTable, error) {
	return c.book.Year(year)
}

// Calculate runs the full federal computation. It fails only when the year
// has no rule table.
func (c *Calculator) Calculate(in Input) (*model.TaxCalculation, error) {
	table, err := c.book.Year(in.TaxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate tax: %w", err)
	}
	status := in.FilingStatus.Normalize()

	agi := cents(in.GrossIncome - in.Adjustments)
	deduction := SelectDeduction(table, status, agi, in.Itemized, c.opts)
	taxable := cents(math.Max(agi-deduction.Amount, 0))

	federal, breakdown := FederalTax(table, status, taxable)

	amtIncome := agi + in.AMTAddBacks
	if deduction.Method == model.DeductionMethodItemized {
		amtIncome += deduction.SALT
	}

	earned := in.GrossIncome
	if in.EarnedIncome != nil {
		earned = *in.EarnedIncome
	}

	ctcChildren := QualifyingChildren(in.Dependents, in.TaxYear, table.ChildTaxCredit.MaxAge)
	eitcChildren := QualifyingChildren(in.Dependents, in.TaxYear, EITCQualifyingAge)

	calc := &model.TaxCalculation{
		TaxYear:        in.TaxYear,
		FilingStatus:   status,
		GrossIncome:    cents(in.GrossIncome),
		AdjustedGross:  agi,
		Deduction:      deduction,
		TaxableIncome:  taxable,
		FederalTax:     federal,
		Breakdown:      breakdown,
		SelfEmployment: SelfEmployment(table, status, in.SelfEmploymentIncome),
		AMT:            AMT(table, status, amtIncome, federal),
		Credits: model.CreditResult{
			ChildTax:            ChildTaxCredit(table, status, agi, ctcChildren),
			EarnedIncome:        EarnedIncomeCredit(table, status, earned, eitcChildren),
			AmericanOpportunity: AmericanOpportunityCredit(table, status, agi, in.EducationExpenses),
		},
		MarginalRate: MarginalRate(table.BracketsFor(status), taxable),
	}

	calc.TotalTax = cents(calc.FederalTax + calc.SelfEmployment.Total + calc.AMT.Liability)
	// Negative when refundable credits exceed the tax.
	calc.NetTax = cents(calc.TotalTax - calc.Credits.Total())
	if taxable > 0 {
		calc.EffectiveRate = calc.FederalTax / taxable
	}

	slog.Debug("Calculated federal tax",
		"tax_year", calc.TaxYear,
		"filing_status", calc.FilingStatus,
		"taxable_income", calc.TaxableIncome,
		"federal_tax", calc.FederalTax,
		"deduction_method", calc.Deduction.Method)

	return calc, nil
}
