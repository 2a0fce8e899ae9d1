package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/inovacc/finzana/internal/auth"
	"github.com/inovacc/finzana/internal/params"
	"github.com/inovacc/finzana/internal/process"
	"github.com/inovacc/finzana/internal/syncer"
	"github.com/inovacc/finzana/internal/web"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	host    string
	port    int
	gops    bool
	noSync  bool
	noFetch bool
}

var serveOpts serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	Long: `Start the JSON API server used by the staff app.

On start the server loads the local store, seeds the admin user when no
user exists, refreshes the spreadsheet mirror and, when the settings carry
Sheets API credentials, starts the worker that appends queued records to
the spreadsheet.

Examples:
  finzana serve
  finzana serve --port 9000 --gops`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, serveOpts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.host, "host", "", "Listen host (overrides settings)")
	serveCmd.Flags().IntVarP(&serveOpts.port, "port", "p", 0, "Listen port (overrides settings)")
	serveCmd.Flags().BoolVar(&serveOpts.gops, "gops", false, "Start the gops diagnostics agent")
	serveCmd.Flags().BoolVar(&serveOpts.noSync, "no-sync", false, "Do not append queued records to the spreadsheet")
	serveCmd.Flags().BoolVar(&serveOpts.noFetch, "no-fetch", false, "Skip the initial spreadsheet refresh")
}

// runServer runs the API until ctx is cancelled.
func runServer(ctx context.Context, opts serveOptions) error {
	pidPath, err := params.Path(process.PIDFile)
	if err != nil {
		return err
	}

	if pid, ok := process.Running(pidPath); ok && pid != os.Getpid() {
		return fmt.Errorf("finzana server already running (pid %d)", pid)
	}

	if err := process.WritePIDFile(pidPath); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}

	defer func() { _ = process.RemovePIDFile(pidPath) }()

	if opts.gops {
		if err := agent.Listen(agent.Options{ShutdownCleanup: false}); err != nil {
			return fmt.Errorf("failed to start gops agent: %w", err)
		}

		defer agent.Close()
	}

	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	s := env.settings

	if seeded, err := env.app.SeedAdmin(ctx, s.Auth.AdminPassword); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	} else if seeded {
		slog.Info("admin user created", "usuario", "admin")
	}

	if env.mirror != nil && !opts.noFetch {
		refreshCtx, cancelRefresh := context.WithCancel(ctx)
		refreshed := env.app.RefreshMirrorAsync(refreshCtx)

		// the store closes after this runs
		defer func() {
			cancelRefresh()
			<-refreshed
		}()
	}

	tokens, err := auth.NewTokens(s.Auth.Secret, s.Auth.TokenTTL)
	if err != nil {
		return err
	}

	webConfig := web.Config{
		Host:         s.Server.Host,
		Port:         s.Server.Port,
		ReadTimeout:  s.Server.ReadTimeout,
		WriteTimeout: s.Server.WriteTimeout,
	}

	if opts.host != "" {
		webConfig.Host = opts.host
	}

	if opts.port != 0 {
		webConfig.Port = opts.port
	}

	webOpts := []web.Option{web.WithLogger(slog.Default())}

	if s.Sync.Enabled && !opts.noSync && s.Sheets.CanAppend() {
		appender, err := newAppender(ctx, s)
		if err != nil {
			return err
		}

		worker := syncer.NewWorker(env.store, appender, s.Sheets.Names(), syncer.Config{
			Interval:    s.Sync.Interval,
			MaxAttempts: s.Sync.MaxAttempts,
			BatchSize:   syncer.DefaultConfig().BatchSize,
		}).WithLogger(slog.Default())

		if err := worker.Start(ctx); err != nil {
			return err
		}
		defer worker.Stop()

		webOpts = append(webOpts, web.WithWorker(worker))
	} else {
		slog.Info("spreadsheet sync disabled")
	}

	return web.New(env.app, tokens, webConfig, webOpts...).Start(ctx)
}
