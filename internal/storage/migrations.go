package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/transcript-recon/internal/common"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Analysis sessions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS analysis_sessions (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					overall_risk TEXT NOT NULL,
					years TEXT NOT NULL,
					recommendations INTEGER NOT NULL DEFAULT 0,
					total_potential_refund REAL NOT NULL DEFAULT 0,
					result TEXT NOT NULL
				)`,
				`CREATE INDEX idx_sessions_created_at ON analysis_sessions(created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Per-finding index for cross-session queries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS session_findings (
					session_id TEXT NOT NULL,
					finding_id TEXT NOT NULL,
					tax_year INTEGER NOT NULL,
					type TEXT NOT NULL,
					severity TEXT NOT NULL,
					title TEXT NOT NULL,
					potential_refund REAL NOT NULL DEFAULT 0,
					tax_impact REAL NOT NULL DEFAULT 0,
					PRIMARY KEY (session_id, finding_id),
					FOREIGN KEY (session_id) REFERENCES analysis_sessions(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_findings_tax_year ON session_findings(tax_year)`,
				`CREATE INDEX idx_findings_type ON session_findings(type)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}

			// Backfill from results saved before this table existed.
			rows, err := tx.Query(`SELECT id, result FROM analysis_sessions`)
			if err != nil {
				return fmt.Errorf("failed to read sessions: %w", err)
			}
			type stored struct{ id, blob string }
			var existing []stored
			for rows.Next() {
				var s stored
				if err := rows.Scan(&s.id, &s.blob); err != nil {
					_ = rows.Close()
					return fmt.Errorf("failed to scan session: %w", err)
				}
				existing = append(existing, s)
			}
			if err := rows.Close(); err != nil {
				return fmt.Errorf("failed to close session rows: %w", err)
			}

			for _, s := range existing {
				result, err := decodeResult(s.blob)
				if err != nil {
					slog.Warn("Skipping unreadable session during backfill", "session_id", s.id, "error", err)
					continue
				}
				if err := insertFindings(context.Background(), tx, s.id, result); err != nil {
					return err
				}
			}
			if len(existing) > 0 {
				slog.Info("Backfilled session findings", "sessions", len(existing))
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("%w: database schema version mismatch: expected %d, got %d",
			common.ErrDatabaseCorrupted, ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
