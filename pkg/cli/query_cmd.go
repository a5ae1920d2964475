package cli

import (
	"github.com/spf13/cobra"
)

// defaultQuery is the literal SQL example from the course material.
const defaultQuery = `SELECT * FROM flights WHERE dep_delay > 240.0 LIMIT 5`

// newQueryCmd runs a literal SQL string against a freshly loaded session.
func newQueryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query [sql]",
		Short: "Run a literal SQL string against the sample tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlText := defaultQuery
			if len(args) == 1 {
				sqlText = args[0]
			}

			ctx := cmd.Context()
			s, _, cleanup, err := openLoadedSession(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := s.Query(ctx, sqlText)
			if err != nil {
				return err
			}
			renderFrame(cmd.OutOrStdout(), f)
			return nil
		},
	}
}
