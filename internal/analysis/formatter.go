package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// CLIFormatter implements ReportFormatter for terminal display.
type CLIFormatter struct {
	styles *Styles
}

// NewCLIFormatter creates a new CLI formatter with default styles.
func NewCLIFormatter() *CLIFormatter {
	return &CLIFormatter{
		styles: NewStyles(),
	}
}

// WithWidth narrows boxes for small terminals.
func (f *CLIFormatter) WithWidth(width int) *CLIFormatter {
	return &CLIFormatter{styles: f.styles.WithWidth(width)}
}

// FormatSummary creates a high-level summary of the analysis result.
func (f *CLIFormatter) FormatSummary(result *model.AnalysisResult) string {
	if result == nil {
		return f.styles.Error.Render("No analysis result available")
	}

	sections := []string{
		f.formatHeader(result),
		f.formatHeadline(result.Summary),
	}

	if len(result.Years) > 0 {
		sections = append(sections, f.formatYears(result.Years))
	}

	if result.Patterns != nil && len(result.Patterns.Patterns) > 0 {
		sections = append(sections, f.formatPatterns(result.Patterns))
	}

	if len(result.Summary.TopIssues) > 0 {
		sections = append(sections, f.formatTopIssues(result.Summary.TopIssues))
	}

	if len(result.Warnings) > 0 {
		sections = append(sections, f.formatWarnings(result.Warnings))
	}

	return strings.Join(sections, "\n\n")
}

// FormatRecommendation formats a single recommendation for detailed display.
func (f *CLIFormatter) FormatRecommendation(rec model.PrioritizedRecommendation) string {
	header := f.priorityStyle(rec.Priority).Bold(true).
		Render(fmt.Sprintf("[P%d] %s", rec.Priority, rec.Title))

	parts := []string{header, f.styles.Normal.Render(rec.Description)}

	meta := []string{
		fmt.Sprintf("Source: %s", rec.Source),
		fmt.Sprintf("Value: $%.2f", rec.EstimatedValue),
		fmt.Sprintf("Timeframe: %s", rec.Timeframe),
	}
	if rec.Probability > 0 {
		meta = append(meta, fmt.Sprintf("Probability: %.0f%%", rec.Probability*100))
	}
	parts = append(parts, f.styles.Subtle.Render(strings.Join(meta, " | ")))

	for _, action := range rec.Actions {
		parts = append(parts, f.styles.Info.Render("→ ")+action)
	}

	if rec.Statute != nil {
		parts = append(parts, f.formatStatute(*rec.Statute))
	}

	return strings.Join(parts, "\n")
}

// FormatTimeline renders the dated action plan.
func (f *CLIFormatter) FormatTimeline(result *model.AnalysisResult) string {
	if result == nil || len(result.Timeline) == 0 {
		return f.styles.Subtle.Render("No upcoming deadlines")
	}

	lines := make([]string, 0, len(result.Timeline))
	for _, entry := range result.Timeline {
		style := f.styles.ForImportance(entry.Importance)
		line := fmt.Sprintf("%s  %s  %s",
			style.Render(fmt.Sprintf("%-8s", entry.Importance)),
			entry.Deadline.Format("2006-01-02"),
			entry.Title)
		if entry.EstimatedValue > 0 {
			line += " " + f.styles.Money.Render(fmt.Sprintf("$%.2f", entry.EstimatedValue))
		}
		lines = append(lines, line)
	}

	return f.styles.RenderBox(strings.Join(lines, "\n"), "Action Timeline", f.styles.TimelineBox)
}

func (f *CLIFormatter) formatHeader(result *model.AnalysisResult) string {
	title := f.styles.Title.Render("Transcript Analysis Report")
	years := make([]string, 0, len(result.Summary.YearsAnalyzed))
	for _, y := range result.Summary.YearsAnalyzed {
		years = append(years, fmt.Sprint(y))
	}
	period := f.styles.Subtitle.Render("Tax years: " + strings.Join(years, ", "))
	generated := f.styles.Subtle.Render(fmt.Sprintf("Generated: %s  Session: %s",
		result.GeneratedAt.Format(time.RFC3339), result.SessionID))

	return fmt.Sprintf("%s\n%s\n%s", title, period, generated)
}

func (f *CLIFormatter) formatHeadline(s model.Summary) string {
	risk := f.styles.ForSeverity(s.OverallRisk).Render(strings.ToUpper(string(s.OverallRisk)))
	confidence := f.styles.ForScore(s.ConfidenceScore)

	lines := []string{
		fmt.Sprintf("Potential refund:      %s", f.styles.Money.Render(fmt.Sprintf("$%.2f", s.TotalPotentialRefund))),
		fmt.Sprintf("Penalty abatement:     %s", f.styles.Money.Render(fmt.Sprintf("$%.2f", s.TotalPenaltyAbatement))),
		fmt.Sprintf("Refunds from findings: %s", f.styles.Money.Render(fmt.Sprintf("$%.2f", s.FindingsRefundTotal))),
		fmt.Sprintf("Overall risk:          %s", risk),
		fmt.Sprintf("Confidence:            %s %s",
			confidence.Render(f.styles.RenderBar(s.ConfidenceScore, 20)),
			confidence.Render(fmt.Sprintf("%.0f%%", s.ConfidenceScore*100))),
	}
	return f.styles.Box.Render(strings.Join(lines, "\n"))
}

func (f *CLIFormatter) formatYears(years []model.YearAnalysis) string {
	blocks := make([]string, 0, len(years))
	for _, y := range years {
		var lines []string
		if c := y.Calculation; c != nil {
			lines = append(lines, fmt.Sprintf("AGI $%.2f  taxable $%.2f  federal $%.2f  net $%.2f  (%s)",
				c.AdjustedGross, c.TaxableIncome, c.FederalTax, c.NetTax, c.FilingStatus))
			if c.State != nil {
				lines = append(lines, fmt.Sprintf("State %s: $%.2f", c.State.State, c.State.Tax))
			}
		}
		if len(y.Findings) == 0 {
			lines = append(lines, f.styles.Success.Render("No findings"))
		}
		for _, finding := range y.Findings {
			lines = append(lines, fmt.Sprintf("%s %s",
				f.styles.ForSeverity(finding.Severity).Render("•"),
				finding.Title))
		}
		blocks = append(blocks, f.styles.RenderBox(strings.Join(lines, "\n"), fmt.Sprint(y.TaxYear), f.styles.YearBox))
	}
	return strings.Join(blocks, "\n")
}

func (f *CLIFormatter) formatPatterns(p *model.PatternAnalysis) string {
	lines := make([]string, 0, len(p.Patterns))
	for _, pattern := range p.Patterns {
		lines = append(lines, fmt.Sprintf("%s %s: %s (recovery $%.2f)",
			f.styles.ForSeverity(pattern.Severity).Render("•"),
			pattern.Title,
			joinYears(pattern.AffectedYears),
			pattern.PotentialRecovery))
	}
	return f.styles.RenderBox(strings.Join(lines, "\n"), "Recurring Patterns", f.styles.PatternBox)
}

func (f *CLIFormatter) formatTopIssues(issues []string) string {
	title := f.styles.Subtitle.Render("Top issues:")
	lines := make([]string, 0, len(issues))
	for i, issue := range issues {
		lines = append(lines, fmt.Sprintf("%s %s", f.styles.Info.Render(fmt.Sprintf("%d.", i+1)), issue))
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatWarnings(warnings []string) string {
	title := f.styles.Warning.Render("Warnings:")
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, f.styles.Subtle.Render("  • "+w))
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatStatute(s model.StatuteInformation) string {
	if s.Expired {
		return f.styles.Error.Render(fmt.Sprintf("%s statute for %d expired %s", s.Kind, s.TaxYear, s.Deadline.Format("2006-01-02")))
	}
	style := f.styles.ForImportance(ImportanceFor(s.DaysRemaining))
	return style.Render(fmt.Sprintf("%s statute for %d: %s (%d days left)", s.Kind, s.TaxYear, s.Deadline.Format("2006-01-02"), s.DaysRemaining))
}

func (f *CLIFormatter) priorityStyle(priority int) lipgloss.Style {
	switch {
	case priority >= 9:
		return f.styles.Critical
	case priority >= 7:
		return f.styles.High
	case priority >= 5:
		return f.styles.Medium
	default:
		return f.styles.Low
	}
}

func joinYears(years []int) string {
	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, fmt.Sprint(y))
	}
	return strings.Join(parts, ", ")
}
