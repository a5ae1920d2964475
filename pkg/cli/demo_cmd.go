package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Halkenhaeusser/labs/internal/query"
)

// newDemoCmd runs the full walkthrough: load, list, show generated SQL,
// collect, head, the lazy-result teaching points, raw SQL, and history.
func newDemoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the full workbench walkthrough",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, store, cleanup, err := openLoadedSession(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Fprintf(out, "== connected (%s, in-memory) ==\n", s.Backend())
			tables, err := s.Tables(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "tables: %v\n\n", tables)

			long := query.Table(s, "flights").
				Filter("dep_delay > ?", 240.0).
				Select("carrier", "flight", "origin", "dest", "dep_delay")

			fmt.Fprintln(out, "== lazy query: long departure delays ==")
			fmt.Fprintf(out, "generated SQL:\n  %s\n\n", long.SQL())

			// Before collecting, the result's size is unknown and its tail
			// is unreachable.
			if _, ok := long.NRow(); !ok {
				fmt.Fprintln(out, "rows before collect: NA (query not yet executed)")
			}
			if _, err := long.Tail(3); errors.Is(err, query.ErrNotCollected) {
				fmt.Fprintf(out, "tail before collect: %v\n\n", err)
			}

			collected, err := long.Collect(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "collected %d rows; head(3):\n", collected.NRow())
			renderFrame(out, collected.Head(3))
			fmt.Fprintln(out)

			fmt.Fprintln(out, "== lazy query: mean delay per destination ==")
			perDest := query.Table(s, "flights").
				GroupBy("dest").
				Summarize("mean_delay", "AVG(dep_delay)").
				Summarize("n", "COUNT(*)").
				OrderBy("mean_delay DESC")
			fmt.Fprintf(out, "generated SQL:\n  %s\n", perDest.SQL())
			f, err := perDest.Collect(ctx)
			if err != nil {
				return err
			}
			renderFrame(out, f.Head(5))
			fmt.Fprintln(out)

			fmt.Fprintln(out, "== lazy query: join with airline names ==")
			joined := query.Table(s, "flights").
				Filter("dep_delay > ?", 240.0).
				InnerJoin(query.Table(s, "airlines"), "carrier").
				Select("carrier", "name", "flight", "dest")
			fmt.Fprintf(out, "generated SQL:\n  %s\n", joined.SQL())
			f, err = joined.Collect(ctx)
			if err != nil {
				return err
			}
			renderFrame(out, f)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "== literal SQL ==")
			fmt.Fprintf(out, "  %s\n", defaultQuery)
			f, err = s.Query(ctx, defaultQuery)
			if err != nil {
				return err
			}
			renderFrame(out, f)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "== query history ==")
			entries, err := store.Recent(ctx, 5)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(out, "[%s %s %dms] %s\n", e.Source, e.Status, e.DurationMS, e.SQL)
			}

			fmt.Fprintln(out, "\n== disconnecting; in-memory data is discarded ==")
			return nil
		},
	}
}
