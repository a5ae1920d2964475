// Package session manages a connection to an embedded analytical engine for
// the lifetime of a workbench run: open, copy the sample tables in, query,
// close. Everything lives in process memory and is discarded on close.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/Halkenhaeusser/labs/internal/config"
	"github.com/Halkenhaeusser/labs/internal/dataset"
	"github.com/Halkenhaeusser/labs/internal/frame"
	"github.com/Halkenhaeusser/labs/internal/history"
)

// Options configures an embedded session.
type Options struct {
	Backend string         // config.BackendDuckDB (default) or config.BackendSQLite3
	Logger  *slog.Logger   // defaults to slog.Default()
	History *history.Store // optional query history; failures are logged, not fatal
}

// Session wraps a database/sql pool on an in-memory embedded engine.
type Session struct {
	db      *sql.DB
	backend string
	log     *slog.Logger
	hist    *history.Store
}

// Open connects to a fresh in-memory database and verifies the connection.
func Open(ctx context.Context, opts Options) (*Session, error) {
	backend := opts.Backend
	if backend == "" {
		backend = config.BackendDuckDB
	}

	var dsn string
	switch backend {
	case config.BackendDuckDB:
		dsn = "" // empty DSN is an in-memory DuckDB instance
	case config.BackendSQLite3:
		dsn = ":memory:"
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	db, err := sql.Open(backend, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	if backend == config.BackendSQLite3 {
		// Each new SQLite connection would get its own empty :memory:
		// database, so pin the pool to a single connection.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", backend, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		db:      db,
		backend: backend,
		log:     logger.With("component", "session", "backend", backend),
		hist:    opts.History,
	}, nil
}

// Backend returns the driver name the session was opened with.
func (s *Session) Backend() string { return s.backend }

// Close discards the in-memory database. Safe to call twice.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.log.Debug("session closed")
	return err
}

// CopyTable creates a table from the frame, bulk-inserts its rows inside a
// transaction, and creates one index per index spec. Column types are
// inferred from the frame's values.
func (s *Session) CopyTable(ctx context.Context, name string, f *frame.Frame, indexes [][]string) error {
	return s.copyTable(ctx, name, f, inferSQLTypes(f), indexes)
}

// LoadDataset copies every table of the dataset into the session, each with
// its manifest-declared index list. Tables load concurrently.
func (s *Session) LoadDataset(ctx context.Context, ds *dataset.Dataset) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range ds.Names() {
		tbl, err := ds.Table(name)
		if err != nil {
			return err
		}
		g.Go(func() error {
			types := make([]string, len(tbl.Spec.Columns))
			for i, c := range tbl.Spec.Columns {
				types[i] = manifestSQLType(c.Type)
			}
			if err := s.copyTable(gctx, tbl.Spec.Name, tbl.Data, types, tbl.Spec.Indexes); err != nil {
				return fmt.Errorf("load %s: %w", tbl.Spec.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("dataset loaded", "tables", len(ds.Names()))
	return nil
}

// Tables lists the user tables in the session, sorted by name.
func (s *Session) Tables(ctx context.Context) ([]string, error) {
	var q string
	switch s.backend {
	case config.BackendDuckDB:
		q = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'main'`
	case config.BackendSQLite3:
		q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Query runs a literal SQL string and materializes the result. The execution
// is recorded in history with source "raw".
func (s *Session) Query(ctx context.Context, sqlText string, args ...any) (*frame.Frame, error) {
	return s.run(ctx, history.SourceRaw, sqlText, args...)
}

// LazyQuery runs SQL rendered from a lazy query chain. Recorded in history
// with source "lazy".
func (s *Session) LazyQuery(ctx context.Context, sqlText string, args ...any) (*frame.Frame, error) {
	return s.run(ctx, history.SourceLazy, sqlText, args...)
}

func (s *Session) run(ctx context.Context, source, sqlText string, args ...any) (*frame.Frame, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		s.record(ctx, source, sqlText, start, err)
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	f, err := frame.FromRows(rows)
	if err != nil {
		s.record(ctx, source, sqlText, start, err)
		return nil, fmt.Errorf("materialize result: %w", err)
	}

	s.record(ctx, source, sqlText, start, nil)
	s.log.Debug("query executed", "source", source, "rows", f.NRow(), "duration", time.Since(start))
	return f, nil
}

// record writes a history entry. History is observability only: failures are
// logged and swallowed.
func (s *Session) record(ctx context.Context, source, sqlText string, start time.Time, qerr error) {
	if s.hist == nil {
		return
	}
	e := history.Entry{
		SQL:        sqlText,
		Source:     source,
		Status:     "ok",
		DurationMS: time.Since(start).Milliseconds(),
	}
	if qerr != nil {
		e.Status = "error"
		e.Error = qerr.Error()
	}
	if _, err := s.hist.Record(ctx, e); err != nil {
		s.log.Warn("record query history", "error", err)
	}
}

func (s *Session) copyTable(ctx context.Context, name string, f *frame.Frame, types []string, indexes [][]string) error {
	cols := f.Columns()
	if len(types) != len(cols) {
		return fmt.Errorf("copy %s: %d types for %d columns", name, len(types), len(cols))
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c) + " " + types[i]
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin copy %s: %w", name, err)
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", name, err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range f.Rows() {
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = bindValue(v)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit copy %s: %w", name, err)
	}

	for _, idx := range indexes {
		if err := s.createIndex(ctx, name, idx); err != nil {
			return err
		}
	}

	s.log.Debug("table copied", "table", name, "rows", f.NRow(), "indexes", len(indexes))
	return nil
}

func (s *Session) createIndex(ctx context.Context, table string, cols []string) error {
	if len(cols) == 0 {
		return fmt.Errorf("index on %s has no columns", table)
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	idxName := fmt.Sprintf("idx_%s_%s", table, strings.Join(cols, "_"))
	ddl := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", quoteIdent(idxName), quoteIdent(table), strings.Join(quoted, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create index %s: %w", idxName, err)
	}
	return nil
}

// bindValue converts frame cells to driver-friendly values. NaN doubles are
// stored as NULL.
func bindValue(v any) any {
	if x, ok := v.(float64); ok && math.IsNaN(x) {
		return nil
	}
	return v
}

// inferSQLTypes picks a column type from the first non-NULL value in each
// column. Columns with no values default to TEXT.
func inferSQLTypes(f *frame.Frame) []string {
	cols := f.Columns()
	types := make([]string, len(cols))
	for i := range types {
		types[i] = "TEXT"
	}
	resolved := 0
	for _, row := range f.Rows() {
		if resolved == len(cols) {
			break
		}
		for i, v := range row {
			if v == nil {
				continue
			}
			switch v.(type) {
			case int, int32, int64, uint32, uint64:
				if types[i] == "TEXT" {
					types[i] = "BIGINT"
					resolved++
				}
			case float32, float64:
				if types[i] != "DOUBLE" {
					if types[i] == "TEXT" {
						resolved++
					}
					types[i] = "DOUBLE"
				}
			}
		}
	}
	return types
}

// manifestSQLType maps manifest column types to SQL types valid on both
// backends.
func manifestSQLType(t string) string {
	switch t {
	case dataset.TypeInteger:
		return "BIGINT"
	case dataset.TypeDouble:
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

// quoteIdent double-quotes an identifier for use in generated SQL.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
