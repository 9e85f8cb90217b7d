// Package history persists build and verification records to a local SQLite
// database so trends survive process restarts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BuildRecord is one stored documentation build result.
type BuildRecord struct {
	ID              int64
	BuildID         string
	Outcome         string
	DurationMS      int64
	CoveragePercent int
	StartedAt       time.Time
	Report          json.RawMessage
}

// VerifyRecord is one stored project verification result.
type VerifyRecord struct {
	ID         int64
	Project    string
	Outcome    string
	StartedAt  time.Time
	DurationMS int64
	Detail     string
}

// Store persists records to SQLite. Use ":memory:" for an ephemeral store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		coverage_percent INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		report BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_builds_build_id ON builds(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);

	CREATE TABLE IF NOT EXISTS verifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		outcome TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_verifications_project ON verifications(project);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AppendBuild stores one build record.
func (s *Store) AppendBuild(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, outcome, duration_ms, coverage_percent, started_at, report) VALUES (?, ?, ?, ?, ?, ?)",
		rec.BuildID, rec.Outcome, rec.DurationMS, rec.CoveragePercent, rec.StartedAt.Unix(), []byte(rec.Report),
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// AppendVerify stores one verification record.
func (s *Store) AppendVerify(ctx context.Context, rec VerifyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO verifications (project, outcome, started_at, duration_ms, detail) VALUES (?, ?, ?, ?, ?)",
		rec.Project, rec.Outcome, rec.StartedAt.Unix(), rec.DurationMS, rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert verify record: %w", err)
	}
	return nil
}

// RecentBuilds returns up to limit builds, newest first.
func (s *Store) RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, outcome, duration_ms, coverage_percent, started_at, report FROM builds ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var records []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var startedUnix int64
		var report []byte
		if err := rows.Scan(&rec.ID, &rec.BuildID, &rec.Outcome, &rec.DurationMS, &rec.CoveragePercent, &startedUnix, &report); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		rec.StartedAt = time.Unix(startedUnix, 0)
		rec.Report = json.RawMessage(report)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build rows: %w", err)
	}
	return records, nil
}

// VerificationsForProject returns up to limit verifications for one project,
// newest first.
func (s *Store) VerificationsForProject(ctx context.Context, project string, limit int) ([]VerifyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, project, outcome, started_at, duration_ms, detail FROM verifications WHERE project = ? ORDER BY id DESC LIMIT ?",
		project, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query verifications: %w", err)
	}
	defer rows.Close()

	var records []VerifyRecord
	for rows.Next() {
		var rec VerifyRecord
		var startedUnix int64
		if err := rows.Scan(&rec.ID, &rec.Project, &rec.Outcome, &startedUnix, &rec.DurationMS, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan verify record: %w", err)
		}
		rec.StartedAt = time.Unix(startedUnix, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verify rows: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
