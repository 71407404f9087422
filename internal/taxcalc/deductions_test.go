package taxcalc

import (
	"testing"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestSelectDeduction(t *testing.T) {
	table := table2023(t)

	tests := []struct {
		name         string
		itemized     *model.ItemizedDeductions
		opts         Options
		agi          float64
		wantMethod   model.DeductionMethod
		wantAmount   float64
		wantItemized float64
	}{
		{
			name:       "no itemized breakdown",
			agi:        86000,
			wantMethod: model.DeductionMethodStandard,
			wantAmount: 13850,
		},
		{
			name:         "salt capped and itemized wins",
			agi:          150000,
			itemized:     &model.ItemizedDeductions{StateAndLocalTaxes: 15000, MortgageInterest: 8000},
			wantMethod:   model.DeductionMethodItemized,
			wantAmount:   18000,
			wantItemized: 18000,
		},
		{
			name:         "tie goes to standard",
			agi:          150000,
			itemized:     &model.ItemizedDeductions{MortgageInterest: 13850},
			wantMethod:   model.DeductionMethodStandard,
			wantAmount:   13850,
			wantItemized: 13850,
		},
		{
			name:         "charitable capped at sixty percent of agi",
			agi:          10000,
			itemized:     &model.ItemizedDeductions{Charitable: 9000},
			wantMethod:   model.DeductionMethodStandard,
			wantAmount:   13850,
			wantItemized: 6000,
		},
		{
			name:         "charitable cap override",
			agi:          10000,
			itemized:     &model.ItemizedDeductions{Charitable: 9000},
			opts:         Options{CharitableAGICap: 0.3},
			wantMethod:   model.DeductionMethodStandard,
			wantAmount:   13850,
			wantItemized: 3000,
		},
		{
			name:         "only medical above the floor counts",
			agi:          50000,
			itemized:     &model.ItemizedDeductions{Medical: 5000},
			wantMethod:   model.DeductionMethodStandard,
			wantAmount:   13850,
			wantItemized: 1250,
		},
		{
			name:         "medical below the floor counts for nothing",
			agi:          50000,
			itemized:     &model.ItemizedDeductions{Medical: 3000},
			wantMethod:   model.DeductionMethodStandard,
			wantAmount:   13850,
			wantItemized: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectDeduction(table, model.FilingSingle, tt.agi, tt.itemized, tt.opts)

			assert.Equal(t, tt.wantMethod, got.Method)
			assert.InDelta(t, tt.wantAmount, got.Amount, 0.001)
			assert.InDelta(t, tt.wantItemized, got.Itemized, 0.001)
			assert.InDelta(t, 13850, got.Standard, 0.001)
			assert.GreaterOrEqual(t, got.Amount, got.Standard)
			assert.GreaterOrEqual(t, got.Amount, got.Itemized)
		})
	}
}

func TestSelectDeduction_SALTRecorded(t *testing.T) {
	got := SelectDeduction(table2023(t), model.FilingSingle, 200000,
		&model.ItemizedDeductions{StateAndLocalTaxes: 25000, MortgageInterest: 20000}, Options{})

	assert.Equal(t, model.DeductionMethodItemized, got.Method)
	assert.InDelta(t, 10000, got.SALT, 0.001)
	assert.InDelta(t, 30000, got.Amount, 0.001)
}
