package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// RecommendationsCSV writes one row per recommendation in priority order.
type RecommendationsCSV struct{}

// Export implements service.Exporter.
func (RecommendationsCSV) Export(w io.Writer, result *model.AnalysisResult) error {
	return writeCSV(w, result, recommendationHeader, recommendationRows)
}

// TimelineCSV writes the dated action plan.
type TimelineCSV struct{}

// Export implements service.Exporter.
func (TimelineCSV) Export(w io.Writer, result *model.AnalysisResult) error {
	return writeCSV(w, result, timelineHeader, timelineRows)
}

// FindingsCSV writes every per-year finding.
type FindingsCSV struct{}

// Export implements service.Exporter.
func (FindingsCSV) Export(w io.Writer, result *model.AnalysisResult) error {
	return writeCSV(w, result, findingHeader, findingRows)
}

func writeCSV(w io.Writer, result *model.AnalysisResult, header []string, rows func(*model.AnalysisResult) [][]string) error {
	if result == nil {
		return fmt.Errorf("nothing to export: result is nil")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(rows(result)); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
