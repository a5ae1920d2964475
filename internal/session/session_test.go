package session_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Halkenhaeusser/labs/internal/config"
	"github.com/Halkenhaeusser/labs/internal/dataset"
	"github.com/Halkenhaeusser/labs/internal/frame"
	"github.com/Halkenhaeusser/labs/internal/history"
	"github.com/Halkenhaeusser/labs/internal/query"
	"github.com/Halkenhaeusser/labs/internal/session"
)

var ctx = context.Background()

// openTestSession opens an in-memory SQLite-backed session and registers
// cleanup. SQLite keeps the tests independent of the DuckDB native library.
func openTestSession(t *testing.T, hist *history.Store) *session.Session {
	t.Helper()
	s, err := session.Open(ctx, session.Options{
		Backend: config.BackendSQLite3,
		Logger:  slog.New(slog.DiscardHandler),
		History: hist,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func loadedSession(t *testing.T) *session.Session {
	t.Helper()
	s := openTestSession(t, nil)
	ds, err := dataset.Default()
	require.NoError(t, err)
	require.NoError(t, s.LoadDataset(ctx, ds))
	return s
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := session.Open(ctx, session.Options{Backend: "oracle"})
	assert.Error(t, err)
}

func TestCloseIdempotent(t *testing.T) {
	s := openTestSession(t, nil)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestCopyTableAndListTables(t *testing.T) {
	s := openTestSession(t, nil)

	f, err := frame.New(
		[]string{"id", "score", "label"},
		[][]any{
			{int64(1), 0.5, "a"},
			{int64(2), 1.5, "b"},
		},
	)
	require.NoError(t, err)

	require.NoError(t, s.CopyTable(ctx, "scores", f, [][]string{{"id"}, {"label", "score"}}))

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"scores"}, tables)

	got, err := s.Query(ctx, `SELECT id, score, label FROM scores ORDER BY id`)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NRow())
	assert.Equal(t, []string{"id", "score", "label"}, got.Columns())
}

func TestLoadDatasetCreatesAllTables(t *testing.T) {
	s := loadedSession(t)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"airlines", "airports", "flights", "planes", "weather"}, tables)
}

func TestLiteralSQLPassThrough(t *testing.T) {
	s := loadedSession(t)

	got, err := s.Query(ctx, `SELECT * FROM flights WHERE dep_delay > 240.0 LIMIT 5`)
	require.NoError(t, err)
	assert.Positive(t, got.NRow())
	assert.LessOrEqual(t, got.NRow(), 5)

	delays, err := got.Float64Column("dep_delay")
	require.NoError(t, err)
	for _, d := range delays {
		assert.Greater(t, d, 240.0)
	}
}

func TestMissingDelaysStoredAsNULL(t *testing.T) {
	s := loadedSession(t)

	got, err := s.Query(ctx, `SELECT COUNT(*) AS n FROM flights WHERE dep_delay IS NULL`)
	require.NoError(t, err)
	require.Equal(t, 1, got.NRow())
	n, err := got.Float64Column("n")
	require.NoError(t, err)
	assert.Positive(t, n[0])
}

func TestLazyChainAgainstSession(t *testing.T) {
	s := loadedSession(t)

	long := query.Table(s, "flights").
		Filter("dep_delay > ?", 240.0).
		Select("carrier", "flight", "dep_delay")

	f, err := long.Collect(ctx)
	require.NoError(t, err)
	assert.Positive(t, f.NRow())
	assert.Equal(t, []string{"carrier", "flight", "dep_delay"}, f.Columns())

	// Collected frames know their size; the lazy query does not.
	_, ok := long.NRow()
	assert.False(t, ok)
	assert.Equal(t, f.NRow(), f.Tail(f.NRow()).NRow())
}

func TestLazyJoinAgainstSession(t *testing.T) {
	s := loadedSession(t)

	f, err := query.Table(s, "flights").
		InnerJoin(query.Table(s, "airlines"), "carrier").
		Select("carrier", "name", "flight").
		Collect(ctx)
	require.NoError(t, err)
	assert.Positive(t, f.NRow())
	assert.Contains(t, f.Columns(), "name")
}

func TestLazySummarizeAgainstSession(t *testing.T) {
	s := loadedSession(t)

	f, err := query.Table(s, "flights").
		GroupBy("dest").
		Summarize("mean_delay", "AVG(dep_delay)").
		Summarize("n", "COUNT(*)").
		Collect(ctx)
	require.NoError(t, err)
	assert.Positive(t, f.NRow())
	assert.Equal(t, []string{"dest", "mean_delay", "n"}, f.Columns())
}

func TestQueriesRecordedInHistory(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := openTestSession(t, store)
	ds, err := dataset.Default()
	require.NoError(t, err)
	require.NoError(t, s.LoadDataset(ctx, ds))

	_, err = s.Query(ctx, `SELECT COUNT(*) FROM airlines`)
	require.NoError(t, err)

	_, err = query.Table(s, "airlines").Head(3).Collect(ctx)
	require.NoError(t, err)

	_, err = s.Query(ctx, `SELECT * FROM no_such_table`)
	require.Error(t, err)

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	bySource := make(map[string]int)
	byStatus := make(map[string]int)
	for _, e := range entries {
		bySource[e.Source]++
		byStatus[e.Status]++
	}
	assert.Equal(t, 2, bySource[history.SourceRaw])
	assert.Equal(t, 1, bySource[history.SourceLazy])
	assert.Equal(t, 1, byStatus["error"])
}
