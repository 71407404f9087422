package transcript

import (
	"strings"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// amountRule maps a label keyword inside a form block to the category it
// reports. Lower rank wins when a block carries several matching lines.
type amountRule struct {
	keyword  string
	category model.IncomeCategory
}

var formRules = map[model.FormType][]amountRule{
	model.FormW2: {
		{keyword: "wages", category: model.CategoryWages},
	},
	model.Form1099INT: {
		{keyword: "interest income", category: model.CategoryInterest},
		{keyword: "interest", category: model.CategoryInterest},
	},
	model.Form1099DIV: {
		{keyword: "ordinary dividends", category: model.CategoryDividends},
		{keyword: "total dividends", category: model.CategoryDividends},
	},
	model.Form1099NEC: {
		{keyword: "nonemployee compensation", category: model.CategorySelfEmployment},
		{keyword: "non-employee compensation", category: model.CategorySelfEmployment},
	},
	model.Form1099MISC: {
		{keyword: "nonemployee compensation", category: model.CategorySelfEmployment},
		{keyword: "non-employee compensation", category: model.CategorySelfEmployment},
		{keyword: "rents", category: model.CategoryOther},
		{keyword: "royalties", category: model.CategoryOther},
		{keyword: "other income", category: model.CategoryOther},
	},
	model.Form1099G: {
		{keyword: "unemployment", category: model.CategoryUnemployment},
	},
	model.Form1099R: {
		{keyword: "taxable amount", category: model.CategoryRetirement},
		{keyword: "gross distribution", category: model.CategoryRetirement},
	},
	model.Form1099B: {
		{keyword: "gain", category: model.CategoryCapitalGains},
		{keyword: "proceeds", category: model.CategoryCapitalGains},
	},
	model.Form1099K: {
		{keyword: "gross amount", category: model.CategorySelfEmployment},
	},
	model.FormSSA1099: {
		{keyword: "net benefits", category: model.CategorySocialSecurity},
		{keyword: "benefits", category: model.CategorySocialSecurity},
	},
}

// normalizeForm maps header spellings such as "W2" or "1099int" onto the
// canonical form names.
func normalizeForm(raw string) model.FormType {
	f := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(f, "W"):
		return model.FormW2
	case strings.HasPrefix(f, "SSA"):
		return model.FormSSA1099
	}
	suffix := strings.TrimPrefix(strings.TrimPrefix(f, "1099"), "-")
	return model.FormType("1099-" + suffix)
}

// formBlock collects the lines of one "Form ..." section.
type formBlock struct {
	form        model.FormType
	payer       string
	category    model.IncomeCategory
	amount      float64
	withholding float64
	line        int
	rank        int
	unreported  bool
}

func newFormBlock(form model.FormType, line int) *formBlock {
	return &formBlock{form: form, line: line, rank: -1}
}

func (b *formBlock) label(s *parseState, lineNo int, label, value string) {
	l := strings.ToLower(label)

	if unreportedAnnotation.MatchString(label) || unreportedAnnotation.MatchString(value) {
		b.unreported = true
		return
	}
	if strings.Contains(l, "identification") || strings.HasSuffix(l, "number") || strings.Contains(l, "(ein)") {
		return
	}
	if strings.Contains(l, "payer") || strings.Contains(l, "employer") || strings.Contains(l, "filer") {
		if b.payer == "" {
			b.payer = strings.Join(strings.Fields(value), " ")
		}
		return
	}
	if strings.Contains(l, "withh") {
		if strings.Contains(l, "state") || strings.Contains(l, "local") || strings.Contains(l, "social security") || strings.Contains(l, "medicare") {
			return
		}
		amount, err := parseAmount(value)
		if err != nil {
			s.warnf(lineNo, "malformed withholding amount %q in %s block; skipped", value, b.form)
			return
		}
		b.withholding += amount
		return
	}

	if b.form == model.FormW2 && (strings.Contains(l, "social security") || strings.Contains(l, "medicare")) {
		return
	}

	rules, ok := formRules[b.form]
	if !ok {
		return
	}
	for rank, rule := range rules {
		if !strings.Contains(l, rule.keyword) {
			continue
		}
		if b.rank >= 0 && b.rank <= rank {
			return
		}
		amount, err := parseAmount(value)
		if err != nil {
			s.warnf(lineNo, "malformed amount %q for %s %q; skipped", value, b.form, label)
			return
		}
		b.amount = amount
		b.category = rule.category
		b.rank = rank
		return
	}
}

func (b *formBlock) item() (model.IncomeItem, bool) {
	if b.rank < 0 {
		return model.IncomeItem{}, false
	}
	return model.IncomeItem{
		Form:        b.form,
		Category:    b.category,
		Payer:       b.payer,
		Amount:      b.amount,
		Withholding: b.withholding,
		Unreported:  b.unreported,
	}, true
}
