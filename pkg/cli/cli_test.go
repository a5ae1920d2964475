package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Halkenhaeusser/labs/internal/frame"
)

// runCommand executes the root command with args and captures stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "labs")
}

func TestSQLCommandShowsGeneratedSQL(t *testing.T) {
	out, err := runCommand(t, "sql")
	require.NoError(t, err)

	assert.Contains(t, out, `FROM "flights" WHERE dep_delay > ?`)
	assert.Contains(t, out, `GROUP BY "dest"`)
	assert.Contains(t, out, `INNER JOIN "airlines" USING ("carrier")`)
}

func TestNormalizeCommand(t *testing.T) {
	out, err := runCommand(t, "normalize", "--rows", "50", "--cols", "3", "--seed", "7")
	require.NoError(t, err)

	assert.Contains(t, out, "50 rows x 3 columns")
	// Scaled columns must report unit sd.
	assert.Contains(t, out, "1.0000")
}

func TestTablesCommandSQLiteBackend(t *testing.T) {
	out, err := runCommand(t, "tables", "--backend", "sqlite3")
	require.NoError(t, err)

	for _, want := range []string{"airlines", "airports", "flights", "planes", "weather"} {
		assert.Contains(t, out, want)
	}
}

func TestQueryCommandDefaultSQL(t *testing.T) {
	out, err := runCommand(t, "query", "--backend", "sqlite3")
	require.NoError(t, err)

	assert.Contains(t, out, "dep_delay")
	assert.Contains(t, out, "rows)")
}

func TestDemoCommandSQLiteBackend(t *testing.T) {
	out, err := runCommand(t, "demo", "--backend", "sqlite3")
	require.NoError(t, err)

	// The lazy-result teaching points.
	assert.Contains(t, out, "rows before collect: NA")
	assert.Contains(t, out, "tail before collect:")

	// The aggregate chain collects with grouping column and both aggregates.
	assert.Contains(t, out, "mean delay per destination")
	assert.Contains(t, out, `AVG(dep_delay) AS "mean_delay", COUNT(*) AS "n"`)
	assert.Contains(t, out, "dest")

	// Joined names and the literal SQL example both ran.
	assert.Contains(t, out, "JetBlue Airways")
	assert.Contains(t, out, defaultQuery)

	// History recorded both sources.
	assert.Contains(t, out, "== query history ==")
	assert.Contains(t, out, "[lazy ok")
	assert.Contains(t, out, "[raw ok")

	assert.Contains(t, out, "in-memory data is discarded")
}

func TestRejectsUnknownBackend(t *testing.T) {
	_, err := runCommand(t, "tables", "--backend", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestRenderFrame(t *testing.T) {
	f, err := frame.New(
		[]string{"carrier", "dep_delay"},
		[][]any{
			{"AA", 260.0},
			{"DL", nil},
		},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	renderFrame(&buf, f)
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5) // header, rule, 2 rows, count
	assert.Contains(t, lines[0], "carrier")
	assert.Contains(t, out, "NA")
	assert.Contains(t, out, "(2 rows)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abcdef", truncate("abcdef", 0))
	assert.Equal(t, "abcdef", truncate("abcdef", 10))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "abc", truncate("abcdefgh", 3))
}
