package analysis

import (
	"strings"

	"github.com/Veraticus/transcript-recon/internal/cli"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all styling definitions for analysis report formatting.
type Styles struct {
	// Base styles from CLI package
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Normal   lipgloss.Style

	// Report-specific styles
	Box         lipgloss.Style
	Money       lipgloss.Style
	Critical    lipgloss.Style
	High        lipgloss.Style
	Medium      lipgloss.Style
	Low         lipgloss.Style
	YearBox     lipgloss.Style
	PatternBox  lipgloss.Style
	TimelineBox lipgloss.Style
}

// NewStyles creates a new Styles instance with default styling.
func NewStyles() *Styles {
	s := &Styles{
		Title:    cli.TitleStyle,
		Subtitle: cli.SubtitleStyle,
		Success:  cli.SuccessStyle,
		Warning:  cli.WarningStyle,
		Error:    cli.ErrorStyle,
		Info:     cli.InfoStyle,
		Subtle:   cli.SubtleStyle,
		Normal:   lipgloss.NewStyle(),
	}

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.SubtleColor).
		Padding(0, 1)

	s.Money = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.SuccessColor)

	s.Critical = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.ErrorColor).
		Background(lipgloss.Color("#2D0000"))

	s.High = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.WarningColor)

	s.Medium = lipgloss.NewStyle().
		Foreground(cli.InfoColor)

	s.Low = lipgloss.NewStyle().
		Foreground(cli.SubtleColor)

	s.YearBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.InfoColor).
		Padding(0, 1).
		MarginTop(1)

	s.PatternBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.WarningColor).
		Padding(0, 1).
		MarginTop(1)

	s.TimelineBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(cli.PrimaryColor).
		Padding(0, 1).
		MarginTop(1)

	return s
}

// WithWidth returns a copy adjusted for the given terminal width.
func (s *Styles) WithWidth(width int) *Styles {
	narrowed := *s
	if width > 0 && width < 100 {
		narrowed.Box = s.Box.Width(width - 4)
		narrowed.YearBox = s.YearBox.Width(width - 4)
		narrowed.PatternBox = s.PatternBox.Width(width - 4)
		narrowed.TimelineBox = s.TimelineBox.Width(width - 4)
	}
	return &narrowed
}

// ForSeverity returns the style for a severity level.
func (s *Styles) ForSeverity(severity model.Severity) lipgloss.Style {
	switch severity {
	case model.SeverityHigh:
		return s.High
	case model.SeverityMedium:
		return s.Medium
	case model.SeverityLow:
		return s.Low
	default:
		return s.Normal
	}
}

// ForImportance returns the style for a timeline importance tier.
func (s *Styles) ForImportance(importance string) lipgloss.Style {
	switch importance {
	case model.ImportanceCritical:
		return s.Critical
	case model.ImportanceHigh:
		return s.High
	case model.ImportanceMedium:
		return s.Medium
	default:
		return s.Normal
	}
}

// ForScore returns the style for a 0-1 score where higher is better.
func (s *Styles) ForScore(score float64) lipgloss.Style {
	switch {
	case score >= 0.8:
		return s.Success
	case score >= 0.6:
		return s.Warning
	default:
		return s.Error
	}
}

// RenderBar draws a plain fill bar for a 0-1 value.
func (s *Styles) RenderBar(value float64, width int) string {
	if width <= 0 {
		width = 30
	}
	filled := min(max(int(float64(width)*value), 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// RenderBox renders content in a styled box with an optional title.
func (s *Styles) RenderBox(content string, title string, style lipgloss.Style) string {
	if title != "" {
		titleStyled := s.Info.Bold(true).Render(" " + title + " ")
		return style.Render(titleStyled + "\n" + content)
	}
	return style.Render(content)
}
