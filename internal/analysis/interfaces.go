package analysis

import (
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// Recorder receives stage timings and run outcomes.
type Recorder interface {
	// ObserveStage records how long one pipeline stage took.
	ObserveStage(stage string, elapsed time.Duration)
	// ObserveResult records a completed analysis.
	ObserveResult(result *model.AnalysisResult)
	// ObserveFailure records a failed analysis.
	ObserveFailure(stage string, err error)
}

// ReportFormatter formats analysis results for display.
type ReportFormatter interface {
	// FormatSummary creates the headline view of a result.
	FormatSummary(result *model.AnalysisResult) string
	// FormatRecommendation formats one recommendation in detail.
	FormatRecommendation(rec model.PrioritizedRecommendation) string
	// FormatTimeline renders the dated action plan.
	FormatTimeline(result *model.AnalysisResult) string
}

type noopRecorder struct{}

func (noopRecorder) ObserveStage(string, time.Duration)  {}
func (noopRecorder) ObserveResult(*model.AnalysisResult) {}
func (noopRecorder) ObserveFailure(string, error)        {}
