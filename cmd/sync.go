package cmd

import (
	"fmt"
	"log/slog"

	"github.com/inovacc/finzana/internal/syncer"
	"github.com/spf13/cobra"
)

var syncStatusOnly bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Append queued records to the spreadsheet",
	Long: `Drain the local sync queue once: every record registered since the
last sync is appended to its sheet through the Sheets API. Failed appends
stay queued and are retried on the next run.

Examples:
  finzana sync
  finzana sync --status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := openEnvironment(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		s := env.settings

		var appender syncer.Appender
		if !syncStatusOnly {
			if !s.Sheets.CanAppend() {
				return fmt.Errorf("sheets credentials missing: set [sheets] spreadsheet_id and api_key or access_token")
			}

			a, err := newAppender(ctx, s)
			if err != nil {
				return err
			}

			appender = a
		}

		worker := syncer.NewWorker(env.store, appender, s.Sheets.Names(), syncer.Config{
			Interval:    s.Sync.Interval,
			MaxAttempts: s.Sync.MaxAttempts,
		}).WithLogger(slog.Default())

		if !syncStatusOnly {
			result, err := worker.DrainOnce(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Appended: %d  Failed: %d  Abandoned: %d\n", result.Appended, result.Failed, result.Abandoned)
		}

		status, err := worker.Status(ctx, syncStatusOnly)
		if err != nil {
			return err
		}

		if syncStatusOnly {
			return printJSON(status)
		}

		fmt.Printf("Pending: %d  Synced: %d\n", status.Pending, status.Synced)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncStatusOnly, "status", false, "Only show the queue status")
}
