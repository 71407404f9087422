package taxcalc

import (
	"testing"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestSelfEmployment(t *testing.T) {
	table := table2023(t)

	t.Run("zero or negative income", func(t *testing.T) {
		assert.Equal(t, model.SelfEmploymentTax{}, SelfEmployment(table, model.FilingSingle, 0))
		assert.Equal(t, model.SelfEmploymentTax{}, SelfEmployment(table, model.FilingSingle, -500))
	})

	t.Run("below wage base", func(t *testing.T) {
		got := SelfEmployment(table, model.FilingSingle, 50000)
		assert.InDelta(t, 46175, got.NetEarnings, 0.001)
		assert.InDelta(t, 5725.70, got.SocialSecurity, 0.01)
		assert.InDelta(t, 1339.08, got.Medicare, 0.01)
		assert.Zero(t, got.AdditionalMedicare)
		assert.InDelta(t, 7064.78, got.Total, 0.02)
	})

	t.Run("wage base cap and additional medicare", func(t *testing.T) {
		got := SelfEmployment(table, model.FilingSingle, 300000)
		assert.InDelta(t, 277050, got.NetEarnings, 0.001)
		assert.InDelta(t, 19864.80, got.SocialSecurity, 0.01)
		assert.InDelta(t, 693.45, got.AdditionalMedicare, 0.01)
	})

	t.Run("joint threshold is higher", func(t *testing.T) {
		single := SelfEmployment(table, model.FilingSingle, 260000)
		joint := SelfEmployment(table, model.FilingMarriedJointly, 260000)
		assert.Greater(t, single.AdditionalMedicare, joint.AdditionalMedicare)
	})
}

func TestSelfEmploymentDelta(t *testing.T) {
	table := table2023(t)

	delta := SelfEmploymentDelta(table, model.FilingSingle, 0, 10000)
	assert.InDelta(t, SelfEmployment(table, model.FilingSingle, 10000).Total, delta, 0.001)
	assert.Less(t, SelfEmploymentDelta(table, model.FilingSingle, 10000, -5000), 0.0)
}

func TestAMT(t *testing.T) {
	table := table2023(t)

	tests := []struct {
		name          string
		amtIncome     float64
		regular       float64
		wantExemption float64
		wantLiability float64
	}{
		{name: "below exemption", amtIncome: 50000, regular: 0, wantExemption: 81300, wantLiability: 0},
		{name: "lower rate only", amtIncome: 100000, regular: 0, wantExemption: 81300, wantLiability: 4862},
		{name: "regular tax exceeds tentative", amtIncome: 100000, regular: 20000, wantExemption: 81300, wantLiability: 0},
		{name: "exemption phasing out", amtIncome: 700000, regular: 250000, wantExemption: 50837.5, wantLiability: 0},
		{name: "exemption fully phased out", amtIncome: 1000000, regular: 0, wantExemption: 0, wantLiability: 220700*0.26 + (1000000-220700)*0.28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AMT(table, model.FilingSingle, tt.amtIncome, tt.regular)
			assert.InDelta(t, tt.wantExemption, got.Exemption, 0.01)
			assert.InDelta(t, tt.wantLiability, got.Liability, 0.01)
			assert.GreaterOrEqual(t, got.Liability, 0.0)
			if got.TentativeTax <= got.RegularTax {
				assert.Zero(t, got.Liability)
			}
		})
	}
}

func TestAMT_NeverNegative(t *testing.T) {
	table := table2023(t)

	for income := 0.0; income <= 2000000; income += 50000 {
		for _, regular := range []float64{0, 10000, 100000, 500000} {
			got := AMT(table, model.FilingMarriedJointly, income, regular)
			assert.GreaterOrEqual(t, got.Liability, 0.0)
		}
	}
}
