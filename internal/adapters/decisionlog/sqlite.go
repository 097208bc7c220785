// Package decisionlog provides routing decision stores.
// Clean Architecture: Adapters implementing ports.DecisionLog.
package decisionlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// SQLiteLog implements ports.DecisionLog with SQLite persistence.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog opens (or creates) decisions.db under dataPath.
func NewSQLiteLog(dataPath string) (*SQLiteLog, error) {
	if dataPath == "" {
		dataPath = "./data"
	}

	// Ensure data directory exists
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "decisions.db")
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteLog{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables.
func (s *SQLiteLog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		at INTEGER NOT NULL,
		tenant_id TEXT NOT NULL,
		persona_id TEXT NOT NULL,
		model TEXT NOT NULL,
		reason TEXT NOT NULL,
		score_simple INTEGER NOT NULL,
		score_medium INTEGER NOT NULL,
		score_complex INTEGER NOT NULL,
		rules_version INTEGER NOT NULL,
		used_external_config INTEGER NOT NULL,
		context_count INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_tenant ON decisions(tenant_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record implements ports.DecisionLog.
func (s *SQLiteLog) Record(ctx context.Context, rec entities.DecisionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (
			id, at, tenant_id, persona_id, model, reason,
			score_simple, score_medium, score_complex,
			rules_version, used_external_config, context_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.At.UnixNano(),
		rec.TenantID,
		rec.PersonaID,
		rec.Model,
		rec.Reason,
		rec.Scores.Simple,
		rec.Scores.Medium,
		rec.Scores.Complex,
		rec.RulesVersion,
		rec.UsedExternalConfig,
		rec.ContextCount,
	)
	if err != nil {
		return fmt.Errorf("inserting decision: %w", err)
	}
	return nil
}

// Recent implements ports.DecisionLog.
func (s *SQLiteLog) Recent(ctx context.Context, limit int) ([]entities.DecisionRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, tenant_id, persona_id, model, reason,
			score_simple, score_medium, score_complex,
			rules_version, used_external_config, context_count
		FROM decisions
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var records []entities.DecisionRecord
	for rows.Next() {
		var (
			rec entities.DecisionRecord
			at  int64
		)
		err := rows.Scan(
			&rec.ID, &at, &rec.TenantID, &rec.PersonaID, &rec.Model, &rec.Reason,
			&rec.Scores.Simple, &rec.Scores.Medium, &rec.Scores.Complex,
			&rec.RulesVersion, &rec.UsedExternalConfig, &rec.ContextCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.At = time.Unix(0, at).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteLog) Close() error {
	return s.db.Close()
}
