// Package cli implements the labs command-line workbench.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Halkenhaeusser/labs/internal/config"
	"github.com/Halkenhaeusser/labs/internal/dataset"
	"github.com/Halkenhaeusser/labs/internal/history"
	"github.com/Halkenhaeusser/labs/internal/session"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the labs command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "labs",
		Short:         "Embedded-analytics workbench over the bundled flight data",
		Long:          "labs is a small workbench: bundled sample tables, an in-memory embedded database, and a lazy SQL-generating query layer.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			// Flags win over env.
			if cmd.Flags().Changed("backend") {
				cfg.Backend = opts.backend
			}
			if cmd.Flags().Changed("history") {
				cfg.HistoryPath = opts.historyPath
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))
			return nil
		},
	}

	addRootFlags(rootCmd.PersistentFlags(), opts)

	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newTablesCmd(opts))
	rootCmd.AddCommand(newSQLCmd())
	rootCmd.AddCommand(newQueryCmd(opts))
	rootCmd.AddCommand(newDemoCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// rootOptions carries flag values and the resolved config into subcommands.
type rootOptions struct {
	backend     string
	historyPath string
	logLevel    string

	cfg    *config.Config
	logger *slog.Logger
}

func addRootFlags(fs *pflag.FlagSet, opts *rootOptions) {
	fs.StringVar(&opts.backend, "backend", config.BackendDuckDB, "embedded engine (duckdb, sqlite3)")
	fs.StringVar(&opts.historyPath, "history", ":memory:", "SQLite path for query history")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// openLoadedSession opens a session per the resolved config, loads the
// bundled dataset, and returns a cleanup func.
func openLoadedSession(ctx context.Context, opts *rootOptions) (*session.Session, *history.Store, func(), error) {
	store, err := history.Open(opts.cfg.HistoryPath)
	if err != nil {
		return nil, nil, nil, err
	}

	s, err := session.Open(ctx, session.Options{
		Backend: opts.cfg.Backend,
		Logger:  opts.logger,
		History: store,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	ds, err := dataset.Default()
	if err != nil {
		_ = s.Close()
		_ = store.Close()
		return nil, nil, nil, err
	}
	if err := s.LoadDataset(ctx, ds); err != nil {
		_ = s.Close()
		_ = store.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = s.Close()
		_ = store.Close()
	}
	return s, store, cleanup, nil
}
