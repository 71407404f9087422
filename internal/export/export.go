// Package export writes analysis results as CSV tables or an XLSX workbook.
package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/service"
)

// Format names an export layout.
type Format string

// Supported formats.
const (
	FormatRecommendationsCSV Format = "recommendations-csv"
	FormatTimelineCSV        Format = "timeline-csv"
	FormatFindingsCSV        Format = "findings-csv"
	FormatXLSX               Format = "xlsx"
)

var exporters = map[Format]service.Exporter{
	FormatRecommendationsCSV: RecommendationsCSV{},
	FormatTimelineCSV:        TimelineCSV{},
	FormatFindingsCSV:        FindingsCSV{},
	FormatXLSX:               Workbook{},
}

// New returns the exporter for a format.
func New(format Format) (service.Exporter, error) {
	exp, ok := exporters[Format(strings.ToLower(string(format)))]
	if !ok {
		return nil, fmt.Errorf("%w: export format %q (supported: %s)",
			common.ErrUnsupportedFormat, format, strings.Join(Formats(), ", "))
	}
	return exp, nil
}

// Formats lists supported format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for f := range exporters {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// Extension is the file extension for a format.
func Extension(format Format) string {
	if format == FormatXLSX {
		return ".xlsx"
	}
	return ".csv"
}

var (
	recommendationHeader = []string{"priority", "id", "source", "type", "title", "estimated_value", "probability", "timeframe", "years", "statute_deadline", "actions"}
	timelineHeader       = []string{"deadline", "days_remaining", "importance", "title", "tax_year", "estimated_value", "recommendation_id", "description"}
	findingHeader        = []string{"tax_year", "id", "type", "severity", "confidence", "title", "category", "transaction_code", "difference", "tax_impact", "potential_refund", "likelihood", "statute_kind", "statute_deadline", "required_action"}
	summaryHeader        = []string{"metric", "value"}
	yearHeader           = []string{"tax_year", "filing_status", "gross_income", "adjusted_gross", "taxable_income", "federal_tax", "net_tax", "state", "state_tax", "findings", "findings_refund"}
)

func recommendationRows(result *model.AnalysisResult) [][]string {
	rows := make([][]string, 0, len(result.Recommendations))
	for _, r := range result.Recommendations {
		deadline := ""
		if r.Statute != nil {
			deadline = date(r.Statute.Deadline)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Priority),
			r.ID,
			string(r.Source),
			r.Type,
			r.Title,
			money(r.EstimatedValue),
			ratio(r.Probability),
			r.Timeframe,
			years(r.Years),
			deadline,
			strings.Join(r.Actions, " | "),
		})
	}
	return rows
}

func timelineRows(result *model.AnalysisResult) [][]string {
	rows := make([][]string, 0, len(result.Timeline))
	for _, e := range result.Timeline {
		year := ""
		if e.TaxYear != 0 {
			year = strconv.Itoa(e.TaxYear)
		}
		rows = append(rows, []string{
			date(e.Deadline),
			strconv.Itoa(e.DaysRemaining),
			e.Importance,
			e.Title,
			year,
			money(e.EstimatedValue),
			e.RecommendationID,
			e.Description,
		})
	}
	return rows
}

func findingRows(result *model.AnalysisResult) [][]string {
	var rows [][]string
	for _, y := range result.Years {
		for _, f := range y.Findings {
			rows = append(rows, []string{
				strconv.Itoa(y.TaxYear),
				f.ID,
				string(f.Type),
				string(f.Severity),
				string(f.Confidence),
				f.Title,
				string(f.Category),
				f.TransactionCode,
				money(f.Difference),
				money(f.TaxImpact),
				money(f.PotentialRefund),
				ratio(f.Likelihood),
				string(f.Statute.Kind),
				date(f.Statute.Deadline),
				f.RequiredAction,
			})
		}
	}
	return rows
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func ratio(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func years(ys []int) string {
	parts := make([]string, len(ys))
	for i, y := range ys {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ";")
}
