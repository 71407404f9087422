// Package testutil provides fixtures shared across package tests: transcript
// text builders and throwaway session stores.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/storage"
)

// TestDB is a migrated store living in the test's temp dir.
type TestDB struct {
	Store *storage.SQLiteStorage
	t     *testing.T
}

// SetupTestDB creates a migrated store that is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.MustSave(testutil.NewResult("session-1"))
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	Sessions       []*model.AnalysisResult
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "recon.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if !opts.SkipMigrations {
		if err := store.Migrate(context.Background()); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	db := &TestDB{Store: store, t: t}
	for _, result := range opts.Sessions {
		db.MustSave(result)
	}
	return db
}

// MustSave stores a result or fails the test.
func (db *TestDB) MustSave(result *model.AnalysisResult) {
	db.t.Helper()
	if err := db.Store.Save(context.Background(), result); err != nil {
		db.t.Fatalf("failed to save session %s: %v", result.SessionID, err)
	}
}

// NewResult returns a small but complete analysis result for storage and
// transport tests.
func NewResult(sessionID string) *model.AnalysisResult {
	at := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	statute := model.ComputeStatute(2021, model.StatuteRefund, at)
	return &model.AnalysisResult{
		SessionID:   sessionID,
		GeneratedAt: at,
		Years: []model.YearAnalysis{{
			TaxYear: 2021,
			Findings: []model.Finding{{
				ID:              "discrepancy-2021-wages",
				Type:            model.FindingIncomeDiscrepancy,
				Severity:        model.SeverityMedium,
				Confidence:      model.ConfidenceHigh,
				Title:           "Wages overstated on return",
				Category:        model.CategoryWages,
				TaxYear:         2021,
				Difference:      -2000,
				TaxImpact:       -440,
				PotentialRefund: 440,
				Statute:         statute,
			}},
		}},
		Recommendations: []model.PrioritizedRecommendation{{
			ID:             "discrepancy-2021-wages",
			Source:         model.SourceFinding,
			Title:          "Wages overstated on return",
			Timeframe:      "Act within 60 days",
			Actions:        []string{"File Form 1040-X."},
			Years:          []int{2021},
			Priority:       7,
			EstimatedValue: 440,
			Statute:        &statute,
		}},
		Timeline: []model.ActionTimelineEntry{{
			Deadline:       statute.Deadline,
			Title:          "Refund statute expires for 2021",
			Importance:     model.ImportanceHigh,
			TaxYear:        2021,
			DaysRemaining:  statute.DaysRemaining,
			EstimatedValue: 440,
		}},
		Summary: model.Summary{
			OverallRisk:         model.SeverityLow,
			TopIssues:           []string{"Wages overstated on return"},
			YearsAnalyzed:       []int{2021},
			FindingsRefundTotal: 440,
			ConfidenceScore:     0.6,
		},
	}
}
