package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "recon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func sampleResult(id string, at time.Time) *model.AnalysisResult {
	return &model.AnalysisResult{
		SessionID:   id,
		GeneratedAt: at,
		Years: []model.YearAnalysis{
			{
				TaxYear: 2021,
				Findings: []model.Finding{
					{ID: "discrepancy-2021-wages", Type: model.FindingIncomeDiscrepancy, Severity: model.SeverityMedium, Title: "Wages overstated", TaxYear: 2021, PotentialRefund: 440, TaxImpact: -440},
				},
			},
			{
				TaxYear: 2022,
				Findings: []model.Finding{
					{ID: "event-2022-166-0", Type: model.FindingPenaltyAbatement, Severity: model.SeverityHigh, Title: "Late filing penalty", TaxYear: 2022, PotentialRefund: 800},
				},
			},
		},
		Recommendations: []model.PrioritizedRecommendation{{ID: "r1"}, {ID: "r2"}},
		Summary: model.Summary{
			OverallRisk:          model.SeverityMedium,
			YearsAnalyzed:        []int{2021, 2022},
			TotalPotentialRefund: 1240,
		},
	}
}

func TestMigrate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var indexCount int
	err = store.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name IN ('idx_sessions_created_at', 'idx_findings_tax_year')
	`).Scan(&indexCount)
	require.NoError(t, err)
	assert.Equal(t, 2, indexCount)
}

func TestSaveAndGet(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	at := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

	original := sampleResult("session-a", at)
	require.NoError(t, store.Save(ctx, original))

	got, err := store.Get(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, original.SessionID, got.SessionID)
	assert.True(t, original.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, original.Summary, got.Summary)
	require.Len(t, got.Years, 2)
	assert.Equal(t, original.Years[0].Findings, got.Years[0].Findings)
}

func TestSave_ReplacesExisting(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	at := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, sampleResult("session-a", at)))

	updated := sampleResult("session-a", at)
	updated.Years = updated.Years[:1]
	updated.Summary.OverallRisk = model.SeverityHigh
	require.NoError(t, store.Save(ctx, updated))

	sessions, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.SeverityHigh, sessions[0].OverallRisk)

	findings, err := store.FindingsByYear(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, findings, 1)
}

func TestSave_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	at := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, store.Save(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, store.Save(ctx, &model.AnalysisResult{GeneratedAt: at}), ErrInvalidResult)
	assert.ErrorIs(t, store.Save(ctx, &model.AnalysisResult{SessionID: "x"}), ErrInvalidResult)

	dup := sampleResult("dup", at)
	dup.Years[1].Findings[0].ID = dup.Years[0].Findings[0].ID
	assert.ErrorIs(t, store.Save(ctx, dup), ErrInvalidResult)

	//nolint:staticcheck // nil context is the case under test
	assert.ErrorIs(t, store.Save(nil, sampleResult("a", at)), ErrNilContext)
}

func TestGet_NotFound(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, store.Save(ctx, sampleResult(id, base.Add(time.Duration(i)*time.Hour))))
	}

	sessions, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "newest", sessions[0].ID)
	assert.Equal(t, "middle", sessions[1].ID)
	assert.Equal(t, []int{2021, 2022}, sessions[0].Years)
	assert.Equal(t, 2, sessions[0].Recommendations)
	assert.InDelta(t, 1240, sessions[0].TotalPotentialRefund, 0.001)
}

func TestDelete(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	at := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, sampleResult("session-a", at)))
	require.NoError(t, store.Delete(ctx, "session-a"))

	_, err := store.Get(ctx, "session-a")
	assert.ErrorIs(t, err, common.ErrNotFound)

	findings, err := store.FindingsByYear(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, findings, "findings cascade with the session")

	assert.ErrorIs(t, store.Delete(ctx, "session-a"), common.ErrNotFound)
}

func TestFindingsByYear(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	at := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, sampleResult("first", at)))
	require.NoError(t, store.Save(ctx, sampleResult("second", at.Add(time.Hour))))

	records, err := store.FindingsByYear(ctx, 2022)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].SessionID)
	assert.Equal(t, "event-2022-166-0", records[0].FindingID)
	assert.Equal(t, model.FindingPenaltyAbatement, records[0].Type)
	assert.Equal(t, model.SeverityHigh, records[0].Severity)
	assert.InDelta(t, 800, records[0].PotentialRefund, 0.001)

	all, err := store.FindingsByYear(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage(" ")
	assert.ErrorIs(t, err, ErrEmptyString)
}
