package risk

import (
	"fmt"
	"math"

	"github.com/Veraticus/transcript-recon/internal/events"
	"github.com/Veraticus/transcript-recon/internal/model"
)

// Prediction tuning.
const (
	MinPredictionAmount     = 100.0
	LargeOverpayment        = 1000.0
	maxAbatementProbability = 0.95
)

// Prediction probabilities.
const (
	RefundProbability      = 0.5
	LargeRefundProbability = 0.7
	CreditProbability      = 0.55
)

// Predict estimates refund, abatement and credit opportunities for every
// year whose refund statute is still open.
func Predict(years []model.YearAnalysis, ctx Context) []model.RefundPrediction {
	var transcripts []*model.ParsedTranscript
	for _, y := range years {
		transcripts = append(transcripts, y.Transcripts...)
	}
	penaltyYears := events.PenaltyYears(transcripts)

	predictions := []model.RefundPrediction{}
	for _, y := range years {
		if model.ComputeStatute(y.TaxYear, model.StatuteRefund, ctx.AsOf).Expired {
			continue
		}
		if p, ok := refundOpportunity(y); ok {
			predictions = append(predictions, p)
		}
		if p, ok := penaltyAbatement(y, events.FirstTimeEligible(y.TaxYear, penaltyYears), ctx.ReasonableCause); ok {
			predictions = append(predictions, p)
		}
		if p, ok := creditEligibility(y); ok {
			predictions = append(predictions, p)
		}
	}
	return predictions
}

// Paid sums withholding and every other payment credited to the account.
func Paid(t *model.ParsedTranscript) float64 {
	_, paid := t.Totals()
	for _, p := range t.Payments {
		if p.Kind != model.PaymentWithholding {
			paid += p.Amount
		}
	}
	return paid
}

func refundOpportunity(y model.YearAnalysis) (model.RefundPrediction, bool) {
	acct := accountOf(y)
	if acct == nil || y.Calculation == nil || acct.HasTransaction("846") {
		return model.RefundPrediction{}, false
	}
	paid := Paid(acct)
	liability := math.Max(y.Calculation.NetTax, 0)
	overpaid := roundCents(paid - liability)
	if overpaid <= MinPredictionAmount {
		return model.RefundPrediction{}, false
	}

	probability := RefundProbability
	if overpaid > LargeOverpayment {
		probability = LargeRefundProbability
	}
	return model.RefundPrediction{
		Type:            model.PredictionRefundOpportunity,
		Description:     fmt.Sprintf("Payments for %d exceed the computed liability by $%.2f and no refund was issued", y.TaxYear, overpaid),
		Timeframe:       "Claim within 90 days",
		Years:           []int{y.TaxYear},
		Probability:     probability,
		EstimatedAmount: overpaid,
		Evidence: []string{
			fmt.Sprintf("%d payments credited: $%.2f", y.TaxYear, paid),
			fmt.Sprintf("%d computed liability: $%.2f", y.TaxYear, liability),
		},
	}, true
}

func penaltyAbatement(y model.YearAnalysis, firstTime, reasonableCause bool) (model.RefundPrediction, bool) {
	var total, expected float64
	var evidence []string
	for _, t := range y.Transcripts {
		for _, p := range t.Penalties {
			if !p.AbatementEligible() {
				continue
			}
			likelihood := events.AbatementLikelihood(p.Amount, firstTime, reasonableCause)
			total += p.Amount
			expected += p.Amount * likelihood
			evidence = append(evidence, fmt.Sprintf("TC %s: $%.2f at %.0f%% likelihood", p.Code, p.Amount, likelihood*100))
		}
	}
	if total <= 0 {
		return model.RefundPrediction{}, false
	}
	return model.RefundPrediction{
		Type:            model.PredictionPenaltyAbatement,
		Description:     fmt.Sprintf("$%.2f of %d penalties may be removed", total, y.TaxYear),
		Timeframe:       "Request within 30 days",
		Years:           []int{y.TaxYear},
		Probability:     round(math.Min(expected/total, maxAbatementProbability)),
		EstimatedAmount: roundCents(expected),
		Evidence:        evidence,
	}, true
}

func creditEligibility(y model.YearAnalysis) (model.RefundPrediction, bool) {
	acct := accountOf(y)
	if acct == nil || y.Calculation == nil {
		return model.RefundPrediction{}, false
	}
	computed := y.Calculation.Credits.Total()
	claimed := acct.CreditTotal(model.CreditChildTax) +
		acct.CreditTotal(model.CreditEarnedIncome) +
		acct.CreditTotal(model.CreditEducation)
	gap := roundCents(computed - claimed)
	if gap <= MinPredictionAmount {
		return model.RefundPrediction{}, false
	}
	return model.RefundPrediction{
		Type:            model.PredictionCreditEligibility,
		Description:     fmt.Sprintf("Credits computed for %d exceed those claimed by $%.2f", y.TaxYear, gap),
		Timeframe:       "Amend within 60 days",
		Years:           []int{y.TaxYear},
		Probability:     CreditProbability,
		EstimatedAmount: gap,
		Evidence: []string{
			fmt.Sprintf("%d computed credits: $%.2f", y.TaxYear, computed),
			fmt.Sprintf("%d claimed credits: $%.2f", y.TaxYear, claimed),
		},
	}, true
}
