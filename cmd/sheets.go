package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sheetsJSON bool

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Read the published business spreadsheet",
}

var sheetsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every sheet and report the row counts",
	Long: `Fetch the clients, placements, collections and lookup sheets
concurrently. A sheet that cannot be fetched is reported and left empty;
the others are still read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if env.mirror == nil {
			return fmt.Errorf("no spreadsheet configured: set [sheets] spreadsheet_id in the settings file")
		}

		summary := env.app.RefreshMirror(cmd.Context())

		if sheetsJSON {
			return printJSON(summary)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SHEET\tROWS\tSKIPPED\tSTATUS")

		for _, r := range summary.Sheets {
			status := "ok"
			switch {
			case r.Error != "":
				status = r.Error
			case r.Unchanged:
				status = "unchanged"
			}

			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", r.Name, r.Rows, r.Skipped, status)
		}

		_ = w.Flush()

		if !summary.OK() {
			return fmt.Errorf("%d sheet(s) failed", summary.Failed)
		}

		return nil
	},
}

var sheetsShowCmd = &cobra.Command{
	Use:   "show <sheet>",
	Short: "Print the rows of one sheet as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if env.mirror == nil {
			return fmt.Errorf("no spreadsheet configured: set [sheets] spreadsheet_id in the settings file")
		}

		result := env.mirror.Refresh(cmd.Context(), args[0])
		if result.Err != nil {
			return result.Err
		}

		rows, ok := env.mirror.Rows(args[0])
		if !ok {
			return fmt.Errorf("unknown sheet %q", args[0])
		}

		return printJSON(rows)
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
	sheetsCmd.AddCommand(sheetsFetchCmd, sheetsShowCmd)

	sheetsFetchCmd.Flags().BoolVar(&sheetsJSON, "json", false, "Output as JSON")
}
