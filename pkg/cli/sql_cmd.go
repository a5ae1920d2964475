package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Halkenhaeusser/labs/internal/query"
)

// workedQueries are the course's three worked examples. Built against a nil
// executor: rendering SQL never touches the database.
func workedQueries() []struct {
	title string
	lazy  *query.Lazy
} {
	flights := query.Table(nil, "flights")
	airlines := query.Table(nil, "airlines")

	return []struct {
		title string
		lazy  *query.Lazy
	}{
		{
			title: "long departure delays",
			lazy: flights.
				Filter("dep_delay > ?", 240.0).
				Select("carrier", "flight", "origin", "dest", "dep_delay"),
		},
		{
			title: "mean delay per destination",
			lazy: flights.
				GroupBy("dest").
				Summarize("mean_delay", "AVG(dep_delay)").
				Summarize("n", "COUNT(*)").
				OrderBy("mean_delay DESC"),
		},
		{
			title: "flights joined with airline names",
			lazy: flights.
				InnerJoin(airlines, "carrier").
				Select("carrier", "name", "flight", "dest"),
		},
	}
}

// newSQLCmd prints the SQL each worked lazy query translates to, without
// executing anything.
func newSQLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sql",
		Short: "Show the SQL the worked lazy queries translate to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, wq := range workedQueries() {
				fmt.Fprintf(out, "-- %s\n%s\n\n", wq.title, wq.lazy.SQL())
			}
			return nil
		},
	}
}
