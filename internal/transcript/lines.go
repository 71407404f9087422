package transcript

import (
	"math"
	"strings"

	"github.com/Veraticus/transcript-recon/internal/events"
	"github.com/Veraticus/transcript-recon/internal/model"
)

type returnLineKind int

const (
	lineIgnore returnLineKind = iota
	lineAGI
	lineTaxableIncome
	lineTaxPerReturn
	lineBalance
	lineWithholding
	lineIncome
	lineDeduction
	lineCredit
)

// returnLineRule maps a label on an account-of-record transcript to a field.
// Rules are checked in order and the first keyword hit wins, so specific
// labels precede general ones.
type returnLineRule struct {
	keywords  []string
	kind      returnLineKind
	form      model.FormType
	category  model.IncomeCategory
	deduction model.DeductionKind
	credit    model.CreditKind
}

var returnLineRules = []returnLineRule{
	{keywords: []string{"accrued", "accrual", "as of", "tax-exempt", "tax exempt", "qualified dividends"}, kind: lineIgnore},
	{keywords: []string{"adjusted gross income"}, kind: lineAGI},
	{keywords: []string{"taxable income"}, kind: lineTaxableIncome},
	{keywords: []string{"withh"}, kind: lineWithholding},
	{keywords: []string{"tax per return", "total tax"}, kind: lineTaxPerReturn},
	{keywords: []string{"account balance"}, kind: lineBalance},
	{keywords: []string{"standard deduction"}, kind: lineDeduction, deduction: model.DeductionStandard},
	{keywords: []string{"itemized deduction", "total itemized"}, kind: lineDeduction, deduction: model.DeductionItemized},
	{keywords: []string{"state and local", "salt"}, kind: lineDeduction, deduction: model.DeductionSALT},
	{keywords: []string{"mortgage interest"}, kind: lineDeduction, deduction: model.DeductionMortgage},
	{keywords: []string{"charitable", "gifts to charity"}, kind: lineDeduction, deduction: model.DeductionCharitable},
	{keywords: []string{"medical"}, kind: lineDeduction, deduction: model.DeductionMedical},
	{keywords: []string{"child tax credit"}, kind: lineCredit, credit: model.CreditChildTax},
	{keywords: []string{"earned income credit", "earned income tax credit"}, kind: lineCredit, credit: model.CreditEarnedIncome},
	{keywords: []string{"education credit", "american opportunity"}, kind: lineCredit, credit: model.CreditEducation},
	{keywords: []string{"business income", "schedule c"}, kind: lineIncome, form: model.FormSchedC, category: model.CategorySelfEmployment},
	{keywords: []string{"wages"}, kind: lineIncome, form: model.FormReturn, category: model.CategoryWages},
	{keywords: []string{"interest"}, kind: lineIncome, form: model.FormReturn, category: model.CategoryInterest},
	{keywords: []string{"dividends"}, kind: lineIncome, form: model.FormReturn, category: model.CategoryDividends},
	{keywords: []string{"unemployment"}, kind: lineIncome, form: model.FormReturn, category: model.CategoryUnemployment},
	{keywords: []string{"pension", "ira distribution", "annuit"}, kind: lineIncome, form: model.FormReturn, category: model.CategoryRetirement},
	{keywords: []string{"capital gain"}, kind: lineIncome, form: model.FormReturn, category: model.CategoryCapitalGains},
	{keywords: []string{"social security"}, kind: lineIncome, form: model.FormReturn, category: model.CategorySocialSecurity},
}

func matchReturnLine(label string) (returnLineRule, bool) {
	l := strings.ToLower(label)
	for _, rule := range returnLineRules {
		for _, kw := range rule.keywords {
			if strings.Contains(l, kw) {
				return rule, true
			}
		}
	}
	return returnLineRule{}, false
}

func (s *parseState) returnLine(lineNo int, label, value string) {
	rule, ok := matchReturnLine(label)
	if !ok || rule.kind == lineIgnore {
		return
	}

	amount, err := parseAmount(value)
	if err != nil {
		s.warnf(lineNo, "malformed amount %q for %q; skipped", value, label)
		return
	}

	acct := s.t.Account
	switch rule.kind {
	case lineAGI:
		acct.AdjustedGrossIncome = &amount
	case lineTaxableIncome:
		acct.TaxableIncome = &amount
	case lineTaxPerReturn:
		acct.TaxPerReturn = &amount
	case lineBalance:
		acct.AccountBalance = &amount
	case lineWithholding:
		acct.Withholding += amount
	case lineDeduction:
		s.t.Deductions = append(s.t.Deductions, model.DeductionItem{Kind: rule.deduction, Amount: amount})
	case lineCredit:
		s.t.Credits = append(s.t.Credits, model.CreditItem{Kind: rule.credit, Amount: amount})
	case lineIncome:
		if amount == 0 {
			return
		}
		s.t.Income = append(s.t.Income, model.IncomeItem{
			Form:     rule.form,
			Category: rule.category,
			Amount:   amount,
		})
	case lineIgnore:
	}
}

// transaction records one transaction code line. With strict set the line is
// known to sit in the transaction table, so a bad date or amount is reported
// and the line is consumed; otherwise it is left for the other matchers.
func (s *parseState) transaction(lineNo int, m []string, strict bool) bool {
	date, err := parseDate(m[4])
	if err != nil {
		if strict {
			s.warnf(lineNo, "transaction %s: %v; skipped", m[1], err)
		}
		return strict
	}
	amount, err := parseAmount(m[5])
	if err != nil {
		if strict {
			s.warnf(lineNo, "transaction %s: %v; skipped", m[1], err)
		}
		return strict
	}

	tc := model.TransactionCode{
		Date:        date,
		Code:        m[1],
		Description: strings.Join(strings.Fields(m[2]), " "),
		Cycle:       m[3],
		Amount:      amount,
	}
	s.t.Transactions = append(s.t.Transactions, tc)

	if kind, ok := events.PenaltyKindFor(tc.Code); ok {
		s.t.Penalties = append(s.t.Penalties, model.PenaltyItem{
			Date:   tc.Date,
			Kind:   kind,
			Code:   tc.Code,
			Amount: math.Abs(tc.Amount),
		})
	}
	if kind, ok := events.PaymentKindFor(tc.Code); ok {
		s.t.Payments = append(s.t.Payments, model.PaymentItem{
			Date:   tc.Date,
			Kind:   kind,
			Code:   tc.Code,
			Amount: math.Abs(tc.Amount),
		})
	}
	return true
}

// applyReversals marks a penalty abated when its reversal code appears.
func (s *parseState) applyReversals() {
	for _, tc := range s.t.Transactions {
		penaltyCode, ok := events.ReversedPenalty(tc.Code)
		if !ok {
			continue
		}
		for i := range s.t.Penalties {
			p := &s.t.Penalties[i]
			if p.Code == penaltyCode && !p.Abated {
				p.Abated = true
				break
			}
		}
	}
}
