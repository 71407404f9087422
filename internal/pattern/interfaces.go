// Package pattern detects issues that recur across several tax years.
package pattern

import "github.com/Veraticus/transcript-recon/internal/model"

// Detector looks for one kind of multi-year pattern.
type Detector interface {
	// Detect returns the pattern and true when the years show it.
	Detect(years []Year) (model.DetectedPattern, bool)
}

// Year groups every transcript parsed for one tax year.
type Year struct {
	Transcripts []*model.ParsedTranscript
	TaxYear     int
}

// IncomeItems returns every income item on the year's transcripts.
func (y Year) IncomeItems() []model.IncomeItem {
	var items []model.IncomeItem
	for _, t := range y.Transcripts {
		items = append(items, t.Income...)
	}
	return items
}

// Penalties returns every penalty on the year's transcripts.
func (y Year) Penalties() []model.PenaltyItem {
	var penalties []model.PenaltyItem
	for _, t := range y.Transcripts {
		penalties = append(penalties, t.Penalties...)
	}
	return penalties
}
