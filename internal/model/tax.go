package model

// DeductionMethod records which deduction the calculator applied.
type DeductionMethod string

// Deduction methods.
const (
	DeductionMethodStandard DeductionMethod = "standard"
	DeductionMethodItemized DeductionMethod = "itemized"
)

// ItemizedDeductions is the optional itemized breakdown fed to the calculator.
type ItemizedDeductions struct {
	StateAndLocalTaxes float64 `json:"state_and_local_taxes"`
	MortgageInterest   float64 `json:"mortgage_interest"`
	Charitable         float64 `json:"charitable"`
	Medical            float64 `json:"medical"`
	Other              float64 `json:"other"`
}

// Dependent is a person claimed on the return.
type Dependent struct {
	Name      string `json:"name,omitempty"`
	BirthYear int    `json:"birth_year"`
}

// AgeAtYearEnd is the dependent's age on December 31 of the tax year.
func (d Dependent) AgeAtYearEnd(taxYear int) int {
	return taxYear - d.BirthYear
}

// DeductionResult records the deduction comparison.
type DeductionResult struct {
	Method   DeductionMethod `json:"method"`
	Amount   float64         `json:"amount"`
	Standard float64         `json:"standard"`
	Itemized float64         `json:"itemized"`
	SALT     float64         `json:"salt_allowed"`
}

// BracketTax is the tax owed within one bracket.
type BracketTax struct {
	Min           float64  `json:"min"`
	Max           *float64 `json:"max,omitempty"`
	Rate          float64  `json:"rate"`
	TaxableAmount float64  `json:"taxable_amount"`
	Tax           float64  `json:"tax"`
}

// SelfEmploymentTax breaks down SE tax.
type SelfEmploymentTax struct {
	NetEarnings        float64 `json:"net_earnings"`
	SocialSecurity     float64 `json:"social_security"`
	Medicare           float64 `json:"medicare"`
	AdditionalMedicare float64 `json:"additional_medicare"`
	Total              float64 `json:"total"`
}

// AMTResult breaks down the alternative minimum tax.
type AMTResult struct {
	AMTIncome    float64 `json:"amt_income"`
	Exemption    float64 `json:"exemption"`
	TentativeTax float64 `json:"tentative_tax"`
	RegularTax   float64 `json:"regular_tax"`
	Liability    float64 `json:"liability"`
}

// CreditResult holds computed credits.
type CreditResult struct {
	ChildTax            float64 `json:"child_tax"`
	EarnedIncome        float64 `json:"earned_income"`
	AmericanOpportunity float64 `json:"american_opportunity"`
}

// Total sums every computed credit.
func (c CreditResult) Total() float64 {
	return c.ChildTax + c.EarnedIncome + c.AmericanOpportunity
}

// StateTaxResult is the output of the state calculator.
type StateTaxResult struct {
	State             string       `json:"state"`
	Kind              string       `json:"kind"`
	Breakdown         []BracketTax `json:"breakdown,omitempty"`
	TaxableIncome     float64      `json:"taxable_income"`
	StandardDeduction float64      `json:"standard_deduction"`
	Tax               float64      `json:"tax"`
	Modeled           bool         `json:"modeled"`
}

// TaxCalculation is the per-year result of the tax calculator.
type TaxCalculation struct {
	State          *StateTaxResult   `json:"state,omitempty"`
	FilingStatus   FilingStatus      `json:"filing_status"`
	Breakdown      []BracketTax      `json:"breakdown"`
	Deduction      DeductionResult   `json:"deduction"`
	SelfEmployment SelfEmploymentTax `json:"self_employment"`
	AMT            AMTResult         `json:"amt"`
	Credits        CreditResult      `json:"credits"`
	TaxYear        int               `json:"tax_year"`
	GrossIncome    float64           `json:"gross_income"`
	AdjustedGross  float64           `json:"adjusted_gross_income"`
	TaxableIncome  float64           `json:"taxable_income"`
	FederalTax     float64           `json:"federal_tax"`
	TotalTax       float64           `json:"total_tax"`
	NetTax         float64           `json:"net_tax"`
	EffectiveRate  float64           `json:"effective_rate"`
	MarginalRate   float64           `json:"marginal_rate"`
}
