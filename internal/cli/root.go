package cli

import (
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/config"
	applog "ledgerbook/internal/log"
	"ledgerbook/internal/repos"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database string // overrides DB_DSN when set
	Format   string // "json" | "text"
	Verbose  bool
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerbook",
		Short: "Offline-first ledger for a small business",
		Long: `ledgerbook keeps products, customers, orders and cash-flow entries in a
local SQLite file, tracks what still has to reach the remote store, and
runs the order workflow so stock and ledger never drift apart.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from DB_DSN)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))

	return cmd
}

// runtime is everything a command needs once config is resolved.
type runtime struct {
	Config config.Config
	Log    *zap.Logger
	DB     *sqlx.DB
	Clock  clock.Clock
	Stores *repos.Stores
}

func (r *runtime) Close() {
	_ = r.Log.Sync()
	_ = r.DB.Close()
}

// open loads config and opens the database. One-shot commands log to stderr
// so their stdout stays machine readable.
func open(opts *RootOptions, logOutput string) (*runtime, error) {
	cfg := config.Load()
	if opts.Database != "" {
		cfg.DBDSN = opts.Database
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	log, err := applog.New(applog.Options{Level: cfg.LogLevel, Encoding: cfg.LogEnc, File: cfg.LogFile, Output: logOutput})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build logger", err)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	clk := clock.NewMonotonic(clock.System)
	return &runtime{Config: cfg, Log: log, DB: db, Clock: clk, Stores: repos.NewStores(db, clk)}, nil
}
