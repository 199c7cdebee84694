package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"call-insights-go/internal/types"
)

const createResultsTableSQL = `
CREATE TABLE IF NOT EXISTS results (
	id TEXT PRIMARY KEY,
	payload_json TEXT NOT NULL,
	created_at_unix_ns INTEGER NOT NULL
)`

const createResultsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_results_created ON results(created_at_unix_ns)`

const upsertResultSQL = `
INSERT INTO results (id, payload_json, created_at_unix_ns) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET payload_json = excluded.payload_json, created_at_unix_ns = excluded.created_at_unix_ns`

const purgeExpiredSQL = `DELETE FROM results WHERE created_at_unix_ns < ?`

const trimOverflowSQL = `
DELETE FROM results WHERE id NOT IN (
	SELECT id FROM results ORDER BY created_at_unix_ns DESC, id DESC LIMIT ?
)`

// SQLite keeps results as JSON rows so they survive a restart within their TTL.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	max int
	now func() time.Time
}

func OpenSQLite(dbPath string, ttl time.Duration, max int) (*SQLite, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY under concurrent jobs.
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{createResultsTableSQL, createResultsIndexSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init results schema: %w", err)
		}
	}
	return &SQLite{db: db, ttl: ttl, max: max, now: time.Now}, nil
}

func (s *SQLite) cutoff() int64 {
	return s.now().Add(-s.ttl).UnixNano()
}

func (s *SQLite) Put(ctx context.Context, id string, r types.AnalysisResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, purgeExpiredSQL, s.cutoff()); err != nil {
		return fmt.Errorf("purge expired results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertResultSQL, id, string(payload), s.now().UnixNano()); err != nil {
		return fmt.Errorf("insert result %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, trimOverflowSQL, s.max); err != nil {
		return fmt.Errorf("trim results: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Get(ctx context.Context, id string) (types.AnalysisResult, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_json FROM results WHERE id = ? AND created_at_unix_ns >= ?`, id, s.cutoff(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.AnalysisResult{}, false, nil
	}
	if err != nil {
		return types.AnalysisResult{}, false, fmt.Errorf("query result %s: %w", id, err)
	}
	var r types.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return types.AnalysisResult{}, false, fmt.Errorf("decode result %s: %w", id, err)
	}
	return r, true, nil
}

func (s *SQLite) List(ctx context.Context) ([]types.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload_json FROM results WHERE created_at_unix_ns >= ? ORDER BY created_at_unix_ns, id`, s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	out := []types.AnalysisResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var r types.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
