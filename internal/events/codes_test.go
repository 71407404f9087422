package events

import (
	"testing"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	info, ok := Lookup("846")
	assert.True(t, ok)
	assert.Equal(t, "846", info.Code)
	assert.Equal(t, CategoryRefund, info.Category)
	assert.False(t, info.Reversible)

	_, ok = Lookup("000")
	assert.False(t, ok)
}

func TestPenaltyReversalPairs(t *testing.T) {
	for _, code := range []string{"160", "166", "170", "176", "240", "270", "276", "280"} {
		info, ok := Lookup(code)
		assert.True(t, ok, code)
		assert.True(t, info.Reversible, code)

		reversal, ok := ReversalFor(code)
		assert.True(t, ok, code)
		back, ok := ReversedPenalty(reversal)
		assert.True(t, ok, reversal)
		assert.Equal(t, code, back)

		_, ok = PenaltyKindFor(code)
		assert.True(t, ok, code)
	}

	_, ok := ReversedPenalty("846")
	assert.False(t, ok)
}

func TestPaymentKindFor(t *testing.T) {
	tests := map[string]model.PaymentKind{
		"806": model.PaymentWithholding,
		"430": model.PaymentEstimated,
		"660": model.PaymentEstimated,
		"610": model.PaymentWithReturn,
		"670": model.PaymentSubsequent,
	}
	for code, want := range tests {
		got, ok := PaymentKindFor(code)
		assert.True(t, ok, code)
		assert.Equal(t, want, got, code)
	}
	_, ok := PaymentKindFor("150")
	assert.False(t, ok)
}
