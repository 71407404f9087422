package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// Anomaly thresholds.
const (
	MinOutlierYears     = 3
	DeductionRatioLimit = 0.25
	TimingDriftDays     = 30
	TimingFullDriftDays = 90.0
	RoundNumberShare    = 0.5
	RoundNumberMinItems = 4
	roundNumberUnit     = 100
)

// DetectAnomalies runs every anomaly check over years sorted ascending.
func (a *Analyzer) DetectAnomalies(years []model.YearAnalysis) []model.TaxAnomaly {
	anomalies := []model.TaxAnomaly{}
	anomalies = append(anomalies, IncomeOutliers(years, a.outlierZ)...)
	for _, y := range years {
		if an, ok := DeductionRatio(y); ok {
			anomalies = append(anomalies, an)
		}
		if an, ok := PaymentTiming(y); ok {
			anomalies = append(anomalies, an)
		}
		if an, ok := RoundNumbers(y); ok {
			anomalies = append(anomalies, an)
		}
	}
	return anomalies
}

// IncomeOutliers flags years whose income sits more than threshold
// population standard deviations from the multi-year mean.
func IncomeOutliers(years []model.YearAnalysis, threshold float64) []model.TaxAnomaly {
	if len(years) < MinOutlierYears {
		return nil
	}
	incomes := make([]float64, len(years))
	var sum float64
	for i, y := range years {
		incomes[i] = totalIncome(y)
		sum += incomes[i]
	}
	mean := sum / float64(len(incomes))
	var variance float64
	for _, v := range incomes {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(incomes)))
	if std == 0 {
		return nil
	}

	var anomalies []model.TaxAnomaly
	for i, y := range years {
		z := (incomes[i] - mean) / std
		if math.Abs(z) <= threshold {
			continue
		}
		anomalies = append(anomalies, model.TaxAnomaly{
			Type:        model.AnomalyIncomeOutlier,
			TaxYear:     y.TaxYear,
			Score:       round(z),
			Severity:    round(math.Min(math.Abs(z)/3, 1)),
			Description: fmt.Sprintf("%d income of $%.2f is %.1f standard deviations from the %d-year average", y.TaxYear, incomes[i], z, len(years)),
			Evidence: []string{
				fmt.Sprintf("%d income: $%.2f", y.TaxYear, incomes[i]),
				fmt.Sprintf("average income: $%.2f", mean),
			},
		})
	}
	return anomalies
}

// DeductionRatio flags a year whose claimed deductions exceed a quarter of income.
func DeductionRatio(y model.YearAnalysis) (model.TaxAnomaly, bool) {
	income := totalIncome(y)
	deductions := claimedDeductions(y)
	if income <= 0 || deductions <= 0 {
		return model.TaxAnomaly{}, false
	}
	ratio := deductions / income
	if ratio <= DeductionRatioLimit {
		return model.TaxAnomaly{}, false
	}
	return model.TaxAnomaly{
		Type:        model.AnomalyDeductionRatio,
		TaxYear:     y.TaxYear,
		Score:       round(ratio),
		Severity:    round(math.Min(ratio, 1)),
		Description: fmt.Sprintf("%d deductions are %.0f%% of income", y.TaxYear, ratio*100),
		Evidence: []string{
			fmt.Sprintf("%d deductions: $%.2f", y.TaxYear, deductions),
			fmt.Sprintf("%d income: $%.2f", y.TaxYear, income),
		},
	}, true
}

// QuarterlyDueDates are the estimated-tax due dates for a tax year.
func QuarterlyDueDates(taxYear int) []time.Time {
	return []time.Time{
		time.Date(taxYear, time.April, 15, 0, 0, 0, 0, time.UTC),
		time.Date(taxYear, time.June, 15, 0, 0, 0, 0, time.UTC),
		time.Date(taxYear, time.September, 15, 0, 0, 0, 0, time.UTC),
		time.Date(taxYear+1, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

// PaymentTiming flags estimated payments made well away from any due date.
// The anomaly reports the worst drift of the year.
func PaymentTiming(y model.YearAnalysis) (model.TaxAnomaly, bool) {
	due := QuarterlyDueDates(y.TaxYear)
	worst := 0
	var evidence []string
	for _, t := range y.Transcripts {
		for _, p := range t.Payments {
			if p.Kind != model.PaymentEstimated || p.Date.IsZero() {
				continue
			}
			drift := nearestDrift(p.Date, due)
			if drift <= TimingDriftDays {
				continue
			}
			evidence = append(evidence, fmt.Sprintf("estimated payment of $%.2f on %s is %d days from a due date", p.Amount, p.Date.Format("2006-01-02"), drift))
			worst = max(worst, drift)
		}
	}
	if worst == 0 {
		return model.TaxAnomaly{}, false
	}
	return model.TaxAnomaly{
		Type:        model.AnomalyTimingIrregularity,
		TaxYear:     y.TaxYear,
		Score:       float64(worst),
		Severity:    round(math.Min(float64(worst)/TimingFullDriftDays, 1)),
		Description: fmt.Sprintf("%d estimated payments drift up to %d days from the quarterly schedule", y.TaxYear, worst),
		Evidence:    evidence,
	}, true
}

func nearestDrift(date time.Time, due []time.Time) int {
	best := math.MaxInt
	for _, d := range due {
		days := model.DaysBetween(d, date)
		if days < 0 {
			days = -days
		}
		best = min(best, days)
	}
	return best
}

// RoundNumbers flags a year where most income amounts are exact hundreds.
func RoundNumbers(y model.YearAnalysis) (model.TaxAnomaly, bool) {
	items := incomeItems(y)
	if len(items) < RoundNumberMinItems {
		return model.TaxAnomaly{}, false
	}
	round100 := 0
	for _, item := range items {
		if item.Amount != 0 && math.Mod(math.Round(item.Amount*100), roundNumberUnit*100) == 0 {
			round100++
		}
	}
	share := float64(round100) / float64(len(items))
	if share <= RoundNumberShare {
		return model.TaxAnomaly{}, false
	}
	return model.TaxAnomaly{
		Type:        model.AnomalyAmountInconsistency,
		TaxYear:     y.TaxYear,
		Score:       round(share),
		Severity:    round(share),
		Description: fmt.Sprintf("%d of %d income amounts in %d are exact multiples of $100", round100, len(items), y.TaxYear),
		Evidence:    []string{fmt.Sprintf("%d: %.0f%% round amounts", y.TaxYear, share*100)},
	}, true
}
