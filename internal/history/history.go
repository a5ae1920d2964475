// Package history records executed queries in a small SQLite metastore so a
// session can be inspected after the fact. The store is an observability
// aid: callers log its failures and keep going.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Query sources.
const (
	SourceRaw  = "raw"  // literal SQL passed straight through
	SourceLazy = "lazy" // SQL rendered from a lazy query chain
)

// Entry is one recorded query execution.
type Entry struct {
	ID         string
	SQL        string
	Source     string
	Status     string // "ok" or "error"
	Error      string
	DurationMS int64
	CreatedAt  time.Time
}

// Store is a SQLite-backed query history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history store at path and runs pending
// migrations. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	// A single connection keeps the in-memory database alive and serializes
	// writers on file-backed stores.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history store: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Record inserts an entry. A zero ID or CreatedAt is filled in.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = "ok"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history (id, sql_text, source, status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SQL, e.Source, e.Status, e.Error, e.DurationMS, e.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("record query: %w", err)
	}
	return e, nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sql_text, source, status, error, duration_ms, created_at
		FROM query_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SQL, &e.Source, &e.Status, &e.Error, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
