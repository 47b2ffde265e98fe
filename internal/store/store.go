// Package store provides the SQLite-backed ingestion ledger. It records the
// outcome of every ingested document and every ingestion run, and keeps a
// per-source pagination cursor so `carrierfit ingest --resume` can continue
// where the previous run stopped.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Status is the outcome of ingesting one document.
type Status string

const (
	// StatusIndexed means extracted text was chunked, embedded and upserted.
	StatusIndexed Status = "indexed"
	// StatusPlaceholder means extraction failed and placeholder text was indexed.
	StatusPlaceholder Status = "placeholder"
	// StatusFailed means nothing was upserted for the document.
	StatusFailed Status = "failed"
)

// DocumentRecord is the ledger entry for one source document.
type DocumentRecord struct {
	SourceKey  string
	CarrierID  string
	Chunks     int
	Vectors    int
	Status     Status
	Error      string
	IngestedAt time.Time
}

// Run summarises one ingestion page.
type Run struct {
	Scope      string
	Offset     int
	Documents  int
	Inserted   int
	Failed     int
	NextOffset int
	Done       bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Ledger persists ingestion outcomes. Implementations must be safe for
// concurrent use.
type Ledger interface {
	// RecordDocument inserts or replaces the entry for rec.SourceKey.
	RecordDocument(ctx context.Context, rec DocumentRecord) error
	// RecordRun appends a run and advances the cursor of run.Scope to
	// run.NextOffset (or back to 0 once the scope is done).
	RecordRun(ctx context.Context, run Run) error
	// Cursor returns the offset the next run for scope should start at.
	Cursor(ctx context.Context, scope string) (int, error)
	// Documents returns all document entries ordered by source key.
	Documents(ctx context.Context) ([]DocumentRecord, error)
	// RecentRuns returns the most recent n runs for scope, oldest first.
	RecentRuns(ctx context.Context, scope string, n int) ([]Run, error)
	// Close releases any resources held by the ledger.
	Close() error
}

// SQLiteStore is a Ledger backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns ~/.carrierfit/ledger.db, creating the directory if
// needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".carrierfit")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "ledger.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Single connection: avoids SQLITE_BUSY and keeps ":memory:" databases
	// from being split across connections.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    source_key   TEXT    PRIMARY KEY,
    carrier_id   TEXT    NOT NULL,
    chunks       INTEGER NOT NULL,
    vectors      INTEGER NOT NULL,
    status       TEXT    NOT NULL CHECK(status IN ('indexed','placeholder','failed')),
    error        TEXT    NOT NULL DEFAULT '',
    ingested_at  INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    scope        TEXT    NOT NULL,
    start_offset INTEGER NOT NULL,
    documents    INTEGER NOT NULL,
    inserted     INTEGER NOT NULL,
    failed       INTEGER NOT NULL,
    next_offset  INTEGER NOT NULL,
    done         INTEGER NOT NULL,
    started_at   INTEGER NOT NULL,
    finished_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_scope_id ON runs (scope, id);
CREATE TABLE IF NOT EXISTS cursors (
    scope        TEXT    PRIMARY KEY,
    next_offset  INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// RecordDocument inserts or replaces the entry for rec.SourceKey.
func (s *SQLiteStore) RecordDocument(ctx context.Context, rec DocumentRecord) error {
	if rec.IngestedAt.IsZero() {
		rec.IngestedAt = time.Now()
	}
	const q = `
INSERT INTO documents (source_key, carrier_id, chunks, vectors, status, error, ingested_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_key) DO UPDATE SET
    carrier_id = excluded.carrier_id,
    chunks = excluded.chunks,
    vectors = excluded.vectors,
    status = excluded.status,
    error = excluded.error,
    ingested_at = excluded.ingested_at`
	_, err := s.db.ExecContext(ctx, q, rec.SourceKey, rec.CarrierID, rec.Chunks, rec.Vectors,
		string(rec.Status), rec.Error, rec.IngestedAt.Unix())
	if err != nil {
		return fmt.Errorf("store: record document %s: %w", rec.SourceKey, err)
	}
	return nil
}

// RecordRun appends run and advances the scope cursor in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertRun = `
INSERT INTO runs (scope, start_offset, documents, inserted, failed, next_offset, done, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun, run.Scope, run.Offset, run.Documents, run.Inserted,
		run.Failed, run.NextOffset, boolInt(run.Done), run.StartedAt.Unix(), run.FinishedAt.Unix()); err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}

	next := run.NextOffset
	if run.Done {
		next = 0
	}
	const upsertCursor = `
INSERT INTO cursors (scope, next_offset, updated_at) VALUES (?, ?, ?)
ON CONFLICT(scope) DO UPDATE SET next_offset = excluded.next_offset, updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsertCursor, run.Scope, next, time.Now().Unix()); err != nil {
		return fmt.Errorf("store: advance cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: record run commit: %w", err)
	}
	return nil
}

// Cursor returns the stored offset for scope, or 0 when none exists.
func (s *SQLiteStore) Cursor(ctx context.Context, scope string) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx, `SELECT next_offset FROM cursors WHERE scope = ?`, scope).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: cursor: %w", err)
	}
	return next, nil
}

// Documents returns all document entries ordered by source key.
func (s *SQLiteStore) Documents(ctx context.Context) ([]DocumentRecord, error) {
	const q = `
SELECT source_key, carrier_id, chunks, vectors, status, error, ingested_at
FROM   documents
ORDER  BY source_key`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRecord
	for rows.Next() {
		var rec DocumentRecord
		var status string
		var ts int64
		if err := rows.Scan(&rec.SourceKey, &rec.CarrierID, &rec.Chunks, &rec.Vectors, &status, &rec.Error, &ts); err != nil {
			return nil, fmt.Errorf("store: documents scan: %w", err)
		}
		rec.Status = Status(status)
		rec.IngestedAt = time.Unix(ts, 0)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: documents rows: %w", err)
	}
	return out, nil
}

// RecentRuns returns the most recent n runs for scope, oldest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, scope string, n int) ([]Run, error) {
	const q = `
SELECT scope, start_offset, documents, inserted, failed, next_offset, done, started_at, finished_at FROM (
    SELECT id, scope, start_offset, documents, inserted, failed, next_offset, done, started_at, finished_at
    FROM   runs
    WHERE  scope = ?
    ORDER  BY id DESC
    LIMIT  ?
) ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, q, scope, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var done int
		var started, finished int64
		if err := rows.Scan(&r.Scope, &r.Offset, &r.Documents, &r.Inserted, &r.Failed,
			&r.NextOffset, &done, &started, &finished); err != nil {
			return nil, fmt.Errorf("store: recent runs scan: %w", err)
		}
		r.Done = done != 0
		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent runs rows: %w", err)
	}
	return runs, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
