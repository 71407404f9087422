package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{raw: "$1,234.56", want: 1234.56},
		{raw: "1234", want: 1234},
		{raw: "-$50.00", want: -50},
		{raw: "$-50.00", want: -50},
		{raw: "($75.25)", want: -75.25},
		{raw: " $0.00 ", want: 0},
		{raw: "", wantErr: true},
		{raw: "$", wantErr: true},
		{raw: "$12x.00", wantErr: true},
		{raw: "n/a", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("04-15-2024")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, 15, got.Day())

	_, err = parseDate("2024-04-15")
	assert.Error(t, err)
}
