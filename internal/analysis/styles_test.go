package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/transcript-recon/internal/model"
)

func TestStyles_RenderBarWidths(t *testing.T) {
	s := NewStyles()

	tests := []struct {
		name   string
		value  float64
		width  int
		filled int
		total  int
	}{
		{name: "half", value: 0.5, width: 10, filled: 5, total: 10},
		{name: "clamped high", value: 1.7, width: 8, filled: 8, total: 8},
		{name: "clamped low", value: -0.2, width: 8, filled: 0, total: 8},
		{name: "default width", value: 1, width: 0, filled: 30, total: 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := s.RenderBar(tt.value, tt.width)
			assert.Equal(t, tt.filled, strings.Count(bar, "█"))
			assert.Equal(t, tt.total, strings.Count(bar, "█")+strings.Count(bar, "░"))
		})
	}
}

func TestStyles_SeverityLookups(t *testing.T) {
	s := NewStyles()
	text := "check"

	assert.Equal(t, s.High.Render(text), s.ForSeverity(model.SeverityHigh).Render(text))
	assert.Equal(t, s.Low.Render(text), s.ForSeverity(model.SeverityLow).Render(text))
	assert.Equal(t, s.Normal.Render(text), s.ForSeverity("").Render(text))
	assert.Equal(t, s.Critical.Render(text), s.ForImportance(model.ImportanceCritical).Render(text))
	assert.Equal(t, s.Success.Render(text), s.ForScore(0.9).Render(text))
	assert.Equal(t, s.Error.Render(text), s.ForScore(0.1).Render(text))
}

func TestStyles_RenderBoxKeepsContent(t *testing.T) {
	s := NewStyles().WithWidth(60)
	out := s.RenderBox("2022: no findings", "Years", s.YearBox)
	assert.Contains(t, out, "Years")
	assert.Contains(t, out, "2022: no findings")
}
