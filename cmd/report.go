package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/inovacc/finzana/internal/encoding"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportOut  string
	reportAsOf string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export reports",
}

var reportDelinquentCmd = &cobra.Command{
	Use:   "delinquent",
	Short: "Export delinquent credits as an XLSX workbook",
	Long: `Export the credits past their due date with no payment recorded,
most overdue first.

Examples:
  finzana report delinquent
  finzana report delinquent --as-of 2024-06-30 --out junio.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf := time.Now()
		if reportAsOf != "" {
			d, err := model.ParseDate(reportAsOf)
			if err != nil {
				return fmt.Errorf("invalid --as-of: %w", err)
			}

			asOf = d
		}

		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if env.mirror != nil {
			env.app.RefreshMirror(cmd.Context())
		}

		names := make(map[string]string)
		for _, c := range env.app.Clients() {
			names[c.CURP] = c.Nombre
		}

		rows := env.app.Delinquent(asOf)

		var buf bytes.Buffer
		if err := report.Delinquent(&buf, rows, names, asOf); err != nil {
			return err
		}

		out := reportOut
		if out == "" {
			out = "cartera-vencida-" + model.FormatDate(asOf) + ".xlsx"
		}

		if err := encoding.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return err
		}

		fmt.Printf("✓ %d delinquent credit(s) written to %s\n", len(rows), out)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDelinquentCmd)

	reportDelinquentCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output file")
	reportDelinquentCmd.Flags().StringVar(&reportAsOf, "as-of", "", "Cut-off date YYYY-MM-DD (default today)")
}
