package events

import "github.com/Veraticus/transcript-recon/internal/model"

// CodeCategory groups transaction codes by what they do to the account.
type CodeCategory string

// Code categories.
const (
	CategoryReturn          CodeCategory = "return"
	CategoryAssessment      CodeCategory = "assessment"
	CategoryPenalty         CodeCategory = "penalty"
	CategoryPenaltyReversal CodeCategory = "penalty_reversal"
	CategoryInterest        CodeCategory = "interest"
	CategoryPayment         CodeCategory = "payment"
	CategoryCredit          CodeCategory = "credit"
	CategoryRefund          CodeCategory = "refund"
	CategoryRefundIssue     CodeCategory = "refund_issue"
	CategoryFreeze          CodeCategory = "freeze"
	CategoryAudit           CodeCategory = "audit"
	CategoryFiling          CodeCategory = "filing"
	CategoryInfo            CodeCategory = "info"
)

// CodeInfo describes one IRS transaction code.
type CodeInfo struct {
	Code        string
	Category    CodeCategory
	Description string
	// Reversible codes describe something the taxpayer can act on.
	Reversible bool
}

var codeTable = map[string]CodeInfo{
	"150": {Category: CategoryReturn, Description: "Tax return filed and tax assessed"},
	"290": {Category: CategoryAssessment, Description: "Additional tax assessed"},
	"300": {Category: CategoryAudit, Description: "Additional tax assessed by examination"},
	"420": {Category: CategoryAudit, Description: "Examination of tax return"},
	"421": {Category: CategoryAudit, Description: "Closed examination"},
	"424": {Category: CategoryAudit, Description: "Examination request indicator"},
	"922": {Category: CategoryAudit, Description: "Review of unreported income"},

	"160": {Category: CategoryPenalty, Description: "Manually assessed penalty for late filing", Reversible: true},
	"166": {Category: CategoryPenalty, Description: "Penalty for late filing", Reversible: true},
	"170": {Category: CategoryPenalty, Description: "Manually assessed estimated tax penalty", Reversible: true},
	"176": {Category: CategoryPenalty, Description: "Penalty for not pre-paying tax", Reversible: true},
	"240": {Category: CategoryPenalty, Description: "Miscellaneous penalty", Reversible: true},
	"270": {Category: CategoryPenalty, Description: "Manually assessed penalty for late payment", Reversible: true},
	"276": {Category: CategoryPenalty, Description: "Penalty for late payment of tax", Reversible: true},
	"280": {Category: CategoryPenalty, Description: "Penalty for dishonored check", Reversible: true},

	"161": {Category: CategoryPenaltyReversal, Description: "Late filing penalty reduced"},
	"167": {Category: CategoryPenaltyReversal, Description: "Late filing penalty abated"},
	"171": {Category: CategoryPenaltyReversal, Description: "Estimated tax penalty reduced"},
	"177": {Category: CategoryPenaltyReversal, Description: "Estimated tax penalty abated"},
	"241": {Category: CategoryPenaltyReversal, Description: "Miscellaneous penalty abated"},
	"271": {Category: CategoryPenaltyReversal, Description: "Late payment penalty reduced"},
	"277": {Category: CategoryPenaltyReversal, Description: "Late payment penalty abated"},
	"281": {Category: CategoryPenaltyReversal, Description: "Dishonored check penalty abated"},

	"196": {Category: CategoryInterest, Description: "Interest charged for late payment"},
	"336": {Category: CategoryInterest, Description: "Interest charged"},
	"776": {Category: CategoryInterest, Description: "Interest credited on overpayment"},

	"430": {Category: CategoryPayment, Description: "Estimated tax payment with declaration"},
	"610": {Category: CategoryPayment, Description: "Payment with return"},
	"660": {Category: CategoryPayment, Description: "Estimated tax payment"},
	"670": {Category: CategoryPayment, Description: "Subsequent payment"},
	"806": {Category: CategoryPayment, Description: "Credit for withheld taxes"},
	"807": {Category: CategoryPayment, Description: "Withholding credit reversed"},

	"716": {Category: CategoryCredit, Description: "Credit transferred in from prior year"},
	"766": {Category: CategoryCredit, Description: "Refundable credit allowed"},
	"768": {Category: CategoryCredit, Description: "Earned income credit"},

	"846": {Category: CategoryRefund, Description: "Refund issued"},
	"740": {Category: CategoryRefundIssue, Description: "Undelivered refund returned to IRS", Reversible: true},
	"841": {Category: CategoryRefundIssue, Description: "Refund cancelled", Reversible: true},
	"898": {Category: CategoryRefundIssue, Description: "Refund applied to non-IRS debt", Reversible: true},

	"570": {Category: CategoryFreeze, Description: "Additional account action pending", Reversible: true},
	"571": {Category: CategoryFreeze, Description: "Resolved additional account action"},
	"810": {Category: CategoryFreeze, Description: "Refund freeze", Reversible: true},
	"811": {Category: CategoryFreeze, Description: "Refund freeze released"},

	"599": {Category: CategoryFiling, Description: "Tax return secured", Reversible: true},
	"971": {Category: CategoryInfo, Description: "Notice issued"},
	"977": {Category: CategoryFiling, Description: "Amended return filed"},
}

// Lookup returns the table entry for a code.
func Lookup(code string) (CodeInfo, bool) {
	info, ok := codeTable[code]
	if ok {
		info.Code = code
	}
	return info, ok
}

// penaltyReversals pairs each penalty code with the code that reverses it.
var penaltyReversals = map[string]string{
	"160": "161",
	"166": "167",
	"170": "171",
	"176": "177",
	"240": "241",
	"270": "271",
	"276": "277",
	"280": "281",
}

// ReversalFor returns the code that reverses a penalty code.
func ReversalFor(penaltyCode string) (string, bool) {
	r, ok := penaltyReversals[penaltyCode]
	return r, ok
}

// ReversedPenalty returns the penalty code a reversal code offsets.
func ReversedPenalty(reversalCode string) (string, bool) {
	for penalty, reversal := range penaltyReversals {
		if reversal == reversalCode {
			return penalty, true
		}
	}
	return "", false
}

// PenaltyKindFor maps a penalty code to its penalty family.
func PenaltyKindFor(code string) (model.PenaltyKind, bool) {
	switch code {
	case "160", "166":
		return model.PenaltyFailureToFile, true
	case "170", "176":
		return model.PenaltyEstimatedTax, true
	case "270", "276":
		return model.PenaltyFailureToPay, true
	case "280":
		return model.PenaltyBadCheck, true
	case "240":
		return model.PenaltyMiscellaneous, true
	}
	return "", false
}

// PaymentKindFor maps a payment code to the kind of payment it records.
func PaymentKindFor(code string) (model.PaymentKind, bool) {
	switch code {
	case "806":
		return model.PaymentWithholding, true
	case "430", "660":
		return model.PaymentEstimated, true
	case "610":
		return model.PaymentWithReturn, true
	case "670":
		return model.PaymentSubsequent, true
	}
	return "", false
}
