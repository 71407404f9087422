package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
)

// TimelinePriority is the lowest recommendation priority placed on the timeline.
const TimelinePriority = 7

// DefaultActionDays is used when a timeframe names no day count.
const DefaultActionDays = 60

// BuildTimeline lists refund-statute deadlines inside the lookahead window and
// dated actions for high-priority recommendations, earliest first.
func BuildTimeline(years []model.YearAnalysis, recs []model.PrioritizedRecommendation, now time.Time, lookaheadDays int) []model.ActionTimelineEntry {
	entries := []model.ActionTimelineEntry{}

	for _, y := range years {
		statute := model.ComputeStatute(y.TaxYear, model.StatuteRefund, now)
		if statute.Expired || statute.DaysRemaining > lookaheadDays {
			continue
		}
		var value float64
		for _, f := range y.Findings {
			value += f.PotentialRefund
		}
		entries = append(entries, model.ActionTimelineEntry{
			Deadline:       statute.Deadline,
			Title:          fmt.Sprintf("Refund statute expires for %d", y.TaxYear),
			Description:    fmt.Sprintf("Claims for %d must be filed by %s.", y.TaxYear, statute.Deadline.Format("January 2, 2006")),
			Importance:     ImportanceFor(statute.DaysRemaining),
			TaxYear:        y.TaxYear,
			DaysRemaining:  statute.DaysRemaining,
			EstimatedValue: value,
		})
	}

	for _, rec := range recs {
		if rec.Priority < TimelinePriority {
			continue
		}
		days := TimeframeDays(rec.Timeframe)
		entry := model.ActionTimelineEntry{
			Deadline:         now.AddDate(0, 0, days),
			Title:            rec.Title,
			Description:      strings.Join(rec.Actions, " "),
			Importance:       importanceForPriority(rec.Priority),
			RecommendationID: rec.ID,
			DaysRemaining:    days,
			EstimatedValue:   rec.EstimatedValue,
		}
		if len(rec.Years) == 1 {
			entry.TaxYear = rec.Years[0]
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Deadline.Before(entries[j].Deadline) })
	return entries
}

// ImportanceFor bands days remaining: under 90 is critical, under 180 high.
func ImportanceFor(days int) string {
	switch {
	case days < 90:
		return model.ImportanceCritical
	case days < 180:
		return model.ImportanceHigh
	}
	return model.ImportanceMedium
}

func importanceForPriority(priority int) string {
	switch {
	case priority >= 9:
		return model.ImportanceCritical
	case priority >= 8:
		return model.ImportanceHigh
	}
	return model.ImportanceMedium
}

// TimeframeDays reads a 30, 60 or 90 day hint from timeframe text.
func TimeframeDays(timeframe string) int {
	for _, days := range []int{30, 60, 90} {
		if strings.Contains(timeframe, fmt.Sprint(days)) {
			return days
		}
	}
	return DefaultActionDays
}
