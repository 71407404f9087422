package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// Workbook writes a multi-sheet XLSX report.
type Workbook struct{}

// Sheet names in workbook order.
const (
	SheetSummary         = "Summary"
	SheetYears           = "Years"
	SheetFindings        = "Findings"
	SheetRecommendations = "Recommendations"
	SheetTimeline        = "Timeline"
)

// Export implements service.Exporter.
func (Workbook) Export(w io.Writer, result *model.AnalysisResult) (err error) {
	if result == nil {
		return fmt.Errorf("nothing to export: result is nil")
	}

	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", closeErr)
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{name: SheetSummary, header: summaryHeader, rows: summaryRows(result)},
		{name: SheetYears, header: yearHeader, rows: yearRows(result)},
		{name: SheetFindings, header: findingHeader, rows: findingRows(result)},
		{name: SheetRecommendations, header: recommendationHeader, rows: recommendationRows(result)},
		{name: SheetTimeline, header: timelineHeader, rows: timelineRows(result)},
	}

	for i, sheet := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
			}
		}
		if err := writeSheet(f, sheet.name, sheet.header, sheet.rows, headerStyle); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("failed to address %s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address %s row %d: %w", sheet, i+2, err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}
	return nil
}

// cellValue stores numeric strings as numbers so spreadsheet formulas work.
func cellValue(s string) any {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func summaryRows(result *model.AnalysisResult) [][]string {
	s := result.Summary
	rows := [][]string{
		{"session_id", result.SessionID},
		{"generated_at", result.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"years_analyzed", years(s.YearsAnalyzed)},
		{"overall_risk", string(s.OverallRisk)},
		{"total_potential_refund", money(s.TotalPotentialRefund)},
		{"total_penalty_abatement", money(s.TotalPenaltyAbatement)},
		{"findings_refund_total", money(s.FindingsRefundTotal)},
		{"confidence_score", strconv.FormatFloat(s.ConfidenceScore, 'f', 4, 64)},
		{"findings", strconv.Itoa(result.TotalFindings())},
		{"recommendations", strconv.Itoa(len(result.Recommendations))},
		{"processing_duration", s.ProcessingDuration},
	}
	for i, issue := range s.TopIssues {
		rows = append(rows, []string{fmt.Sprintf("top_issue_%d", i+1), issue})
	}
	for i, warning := range result.Warnings {
		rows = append(rows, []string{fmt.Sprintf("warning_%d", i+1), warning})
	}
	return rows
}

func yearRows(result *model.AnalysisResult) [][]string {
	rows := make([][]string, 0, len(result.Years))
	for _, y := range result.Years {
		var refund float64
		for _, f := range y.Findings {
			refund += f.PotentialRefund
		}
		row := []string{strconv.Itoa(y.TaxYear), "", "", "", "", "", "", "", "", strconv.Itoa(len(y.Findings)), money(refund)}
		if c := y.Calculation; c != nil {
			row[1] = string(c.FilingStatus)
			row[2] = money(c.GrossIncome)
			row[3] = money(c.AdjustedGross)
			row[4] = money(c.TaxableIncome)
			row[5] = money(c.FederalTax)
			row[6] = money(c.NetTax)
			if c.State != nil {
				row[7] = c.State.State
				row[8] = money(c.State.Tax)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
