package cmd

import (
	"log/slog"
	"os"

	"github.com/inovacc/finzana/internal/application"
	"github.com/inovacc/finzana/internal/core"
	"github.com/spf13/cobra"
)

var (
	settingsPath string
	verbose      bool
	logJSON      bool
	actingUser   string
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Back office for a microfinance credit and collections business",
	Long: `Finzana keeps clients, loan placements and weekly payments in a local
store, mirrors the business spreadsheet published on Google Sheets and
appends new records back to it.

Run 'finzana serve' to start the JSON API used by the staff app.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(verbose, logJSON))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "Settings file (default: finzana.ini in the data directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
	rootCmd.PersistentFlags().StringVar(&actingUser, "as", core.AdminUser, "User recorded as the author of new records")
}

func newLogger(debug, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	if jsonOutput {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
