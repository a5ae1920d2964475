package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Halkenhaeusser/labs/internal/frame"
)

// renderFrame writes a frame as an aligned text table. When w is a terminal
// the output is truncated to its width.
func renderFrame(w io.Writer, f *frame.Frame) {
	cols := f.Columns()
	rows := f.Rows()

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(row))
		for c, v := range row {
			s := formatCell(v)
			cells[r][c] = s
			if len(s) > widths[c] {
				widths[c] = len(s)
			}
		}
	}

	maxWidth := terminalWidth(w)

	var b strings.Builder
	writeRow := func(vals []string) {
		b.Reset()
		for i, v := range vals {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(pad(v, widths[i]))
		}
		fmt.Fprintln(w, truncate(strings.TrimRight(b.String(), " "), maxWidth))
	}

	writeRow(cols)
	rule := make([]string, len(cols))
	for i := range rule {
		rule[i] = strings.Repeat("-", widths[i])
	}
	writeRow(rule)
	for _, row := range cells {
		writeRow(row)
	}
	fmt.Fprintf(w, "(%d rows)\n", f.NRow())
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NA"
	case float64:
		if math.IsNaN(x) {
			return "NA"
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func truncate(s string, w int) string {
	if w <= 0 || len(s) <= w {
		return s
	}
	if w <= 3 {
		return s[:w]
	}
	return s[:w-3] + "..."
}

// terminalWidth returns the width of w when it is a terminal, 0 otherwise
// (no truncation).
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
