// Package ledger records which source documents have been ingested and the
// hash of the file at that time, so batch ingestion can skip unchanged PDFs.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // register "sqlite" driver
)

// ErrNotFound is returned by Lookup when a source has never been recorded.
var ErrNotFound = errors.New("ledger: entry not found")

// Entry is the outcome of the latest ingestion run for one source.
type Entry struct {
	Source     string
	FileHash   string
	Processed  int
	Errors     int
	IngestedAt time.Time
}

// Ledger is a SQLite-backed ingestion history.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at path and migrates the schema.
// ":memory:" gives a throwaway ledger.
func Open(path string) (*Ledger, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ingestions (
    source       TEXT    PRIMARY KEY,
    file_hash    TEXT    NOT NULL,
    processed    INTEGER NOT NULL DEFAULT 0,
    errors       INTEGER NOT NULL DEFAULT 0,
    ingested_at  INTEGER NOT NULL  -- Unix timestamp (seconds)
);
`
	if _, err := l.db.Exec(ddl); err != nil {
		return fmt.Errorf("ledger: migrate: %w", err)
	}
	return nil
}

// Lookup returns the latest entry for source.
func (l *Ledger) Lookup(ctx context.Context, source string) (*Entry, error) {
	query, args, err := squirrel.Select("source", "file_hash", "processed", "errors", "ingested_at").
		From("ingestions").
		Where(squirrel.Eq{"source": source}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ledger: build lookup: %w", err)
	}

	e, err := scanEntry(l.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: lookup: %w", err)
	}
	return e, nil
}

// Unchanged reports whether source was already ingested with the same hash.
func (l *Ledger) Unchanged(ctx context.Context, source, hash string) (bool, error) {
	e, err := l.Lookup(ctx, source)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.FileHash == hash, nil
}

// Record stores the outcome of an ingestion run, replacing any previous entry
// for the same source. A zero IngestedAt is stamped with the current time.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.IngestedAt.IsZero() {
		e.IngestedAt = time.Now()
	}

	query, args, err := squirrel.Insert("ingestions").
		Columns("source", "file_hash", "processed", "errors", "ingested_at").
		Values(e.Source, e.FileHash, e.Processed, e.Errors, e.IngestedAt.Unix()).
		Suffix(`ON CONFLICT (source) DO UPDATE SET
			file_hash = excluded.file_hash,
			processed = excluded.processed,
			errors = excluded.errors,
			ingested_at = excluded.ingested_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("ledger: build record: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ledger: record: %w", err)
	}
	return nil
}

// List returns every entry, most recent first.
func (l *Ledger) List(ctx context.Context) ([]Entry, error) {
	query, args, err := squirrel.Select("source", "file_hash", "processed", "errors", "ingested_at").
		From("ingestions").
		OrderBy("ingested_at DESC", "source").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ledger: build list: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: list scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list rows: %w", err)
	}
	return entries, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("ledger: close: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var ts int64
	if err := row.Scan(&e.Source, &e.FileHash, &e.Processed, &e.Errors, &ts); err != nil {
		return nil, err
	}
	e.IngestedAt = time.Unix(ts, 0)
	return &e, nil
}
