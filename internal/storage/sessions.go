package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/service"
)

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 50

// FindingRecord is one stored finding with the session it came from.
type FindingRecord struct {
	CreatedAt       time.Time         `json:"created_at"`
	SessionID       string            `json:"session_id"`
	FindingID       string            `json:"finding_id"`
	Type            model.FindingType `json:"type"`
	Severity        model.Severity    `json:"severity"`
	Title           string            `json:"title"`
	TaxYear         int               `json:"tax_year"`
	PotentialRefund float64           `json:"potential_refund"`
	TaxImpact       float64           `json:"tax_impact"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Save stores a result, replacing any earlier result with the same session id.
func (s *SQLiteStorage) Save(ctx context.Context, result *model.AnalysisResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateResult(result); err != nil {
		return err
	}

	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	years, err := json.Marshal(result.Summary.YearsAnalyzed)
	if err != nil {
		return fmt.Errorf("failed to encode years: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_sessions (id, created_at, overall_risk, years, recommendations, total_potential_refund, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			overall_risk = excluded.overall_risk,
			years = excluded.years,
			recommendations = excluded.recommendations,
			total_potential_refund = excluded.total_potential_refund,
			result = excluded.result`,
		result.SessionID,
		result.GeneratedAt.UTC(),
		string(result.Summary.OverallRisk),
		string(years),
		len(result.Recommendations),
		result.Summary.TotalPotentialRefund,
		string(blob),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM session_findings WHERE session_id = ?`, result.SessionID); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}
	if err = insertFindings(ctx, tx, result.SessionID, result); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	slog.Debug("Saved analysis session",
		"session_id", result.SessionID,
		"findings", result.TotalFindings())
	return nil
}

// Get loads a stored result.
func (s *SQLiteStorage) Get(ctx context.Context, sessionID string) (*model.AnalysisResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM analysis_sessions WHERE id = ?`, sessionID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	result, err := decodeResult(blob)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w: %w", sessionID, common.ErrDatabaseCorrupted, err)
	}
	return result, nil
}

// List returns session summaries, newest first.
func (s *SQLiteStorage) List(ctx context.Context, limit int) ([]service.SessionSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, overall_risk, years, recommendations, total_potential_refund
		FROM analysis_sessions
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []service.SessionSummary{}
	for rows.Next() {
		var (
			summary service.SessionSummary
			risk    string
			years   string
		)
		if err := rows.Scan(&summary.ID, &summary.CreatedAt, &risk, &years, &summary.Recommendations, &summary.TotalPotentialRefund); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		summary.OverallRisk = model.Severity(risk)
		if err := json.Unmarshal([]byte(years), &summary.Years); err != nil {
			return nil, fmt.Errorf("session %s: %w: %w", summary.ID, common.ErrDatabaseCorrupted, err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return summaries, nil
}

// Delete removes a session and its findings.
func (s *SQLiteStorage) Delete(ctx context.Context, sessionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, common.ErrNotFound)
	}
	return nil
}

// FindingsByYear lists stored findings for a tax year across every session,
// newest session first. A zero year lists all years.
func (s *SQLiteStorage) FindingsByYear(ctx context.Context, taxYear int) ([]FindingRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.session_id, s.created_at, f.finding_id, f.tax_year, f.type, f.severity, f.title, f.potential_refund, f.tax_impact
		FROM session_findings f
		JOIN analysis_sessions s ON s.id = f.session_id
		WHERE ? = 0 OR f.tax_year = ?
		ORDER BY s.created_at DESC, f.tax_year, f.finding_id`, taxYear, taxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []FindingRecord{}
	for rows.Next() {
		var (
			r        FindingRecord
			kind     string
			severity string
		)
		if err := rows.Scan(&r.SessionID, &r.CreatedAt, &r.FindingID, &r.TaxYear, &kind, &severity, &r.Title, &r.PotentialRefund, &r.TaxImpact); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		r.Type = model.FindingType(kind)
		r.Severity = model.Severity(severity)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate findings: %w", err)
	}
	return records, nil
}

func insertFindings(ctx context.Context, db execer, sessionID string, result *model.AnalysisResult) error {
	for _, y := range result.Years {
		for _, f := range y.Findings {
			if _, err := db.ExecContext(ctx, `
				INSERT INTO session_findings (session_id, finding_id, tax_year, type, severity, title, potential_refund, tax_impact)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				sessionID, f.ID, y.TaxYear, string(f.Type), string(f.Severity), f.Title, f.PotentialRefund, f.TaxImpact,
			); err != nil {
				return fmt.Errorf("failed to save finding %s: %w", f.ID, err)
			}
		}
	}
	return nil
}

func decodeResult(blob string) (*model.AnalysisResult, error) {
	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(blob), &result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}
