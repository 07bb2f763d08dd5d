package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerbook/internal/http/handlers"
)

type ServeOptions struct {
	*RootOptions
	Port string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Port, "port", "", "listen port (default from PORT)")
	return cmd
}

func runServe(parent context.Context, opts *ServeOptions) error {
	rt, err := open(opts.RootOptions, "stdout")
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config
	if opts.Port != "" {
		cfg.Port = opts.Port
	}
	rt.Log.Info("server.start", cfg.Field())

	deps := handlers.NewDeps(rt.Stores, rt.Clock, cfg, rt.Log)
	app := handlers.NewApp(deps, handlers.AppOptions{
		Log:             rt.Log,
		AdminTokenHash:  cfg.AdminTokenHash,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(":" + cfg.Port) }()

	select {
	case err := <-errc:
		return WrapExitError(ExitCommandError, "server stopped", err)
	case <-ctx.Done():
	}
	rt.Log.Info("server.shutdown")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		rt.Log.Error("server.shutdown.fail", zap.Error(err))
		return err
	}
	return nil
}
