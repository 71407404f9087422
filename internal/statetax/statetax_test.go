package statetax

import (
	"testing"

	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_IllinoisFlat(t *testing.T) {
	got := Calculate(rules.MustDefault(), "IL", 86000)

	assert.True(t, got.Modeled)
	assert.Equal(t, "IL", got.State)
	assert.Equal(t, "flat", got.Kind)
	assert.InDelta(t, 86000-2425, got.TaxableIncome, 0.001)
	assert.InDelta(t, (86000-2425)*0.0495, got.Tax, 0.005)
}

func TestCalculate_CaseInsensitive(t *testing.T) {
	book := rules.MustDefault()

	upper := Calculate(book, "IL", 50000)
	lower := Calculate(book, " il ", 50000)
	assert.Equal(t, upper, lower)
}

func TestCalculate_NoTaxState(t *testing.T) {
	got := Calculate(rules.MustDefault(), "TX", 250000)

	assert.True(t, got.Modeled)
	assert.Zero(t, got.Tax)
	assert.Equal(t, "none", got.Kind)
}

func TestCalculate_UnknownState(t *testing.T) {
	got := Calculate(rules.MustDefault(), "ZZ", 250000)

	assert.False(t, got.Modeled)
	assert.Zero(t, got.Tax)
	assert.Equal(t, "ZZ", got.State)
}

func TestCalculate_Progressive(t *testing.T) {
	book := rules.MustDefault()
	rule, ok := book.State("CA")
	require.True(t, ok)

	got := Calculate(book, "ca", 100000)
	require.True(t, got.Modeled)
	assert.InDelta(t, 100000-rule.StandardDeduction, got.TaxableIncome, 0.001)
	assert.NotEmpty(t, got.Breakdown)

	var sum float64
	for _, b := range got.Breakdown {
		sum += b.Tax
	}
	assert.InDelta(t, got.Tax, sum, 0.001)

	// Income under the deduction owes nothing.
	small := Calculate(book, "CA", 3000)
	assert.Zero(t, small.Tax)
	assert.Zero(t, small.TaxableIncome)
}
