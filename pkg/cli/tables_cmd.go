package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newTablesCmd loads the bundled dataset into a fresh session and lists the
// tables the engine reports.
func newTablesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Load the sample tables and list them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, _, cleanup, err := openLoadedSession(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			tables, err := s.Tables(ctx)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}
