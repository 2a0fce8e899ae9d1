package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/inovacc/finzana/internal/core"
	"github.com/inovacc/finzana/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	creditCURP  string
	creditMonto decimal.Decimal
	creditPlazo int
	creditFecha string
	creditsJSON bool
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Place and list credits",
}

var creditsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Place a credit with a client",
	Long: `Place a credit. The weekly installment is the principal plus the
configured flat interest, divided by the term in weeks.

Examples:
  finzana credits add --curp GOMR800101HDFRRN09 --monto 5000 --plazo 16`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := core.CreditInput{CURP: creditCURP, Monto: creditMonto, Plazo: creditPlazo}

		if creditFecha != "" {
			var err error
			if in.Fecha, err = model.ParseDate(creditFecha); err != nil {
				return fmt.Errorf("invalid --fecha: %w", err)
			}
		}

		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		credit, err := env.app.PlaceCredit(cmd.Context(), in, actingUser)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Credit %s placed: %s over %d weeks, %s weekly, due %s\n",
			credit.ID, credit.Monto.StringFixed(2), credit.Plazo, credit.PagoSemanal.StringFixed(2), model.FormatDate(credit.Vencimiento))

		return nil
	},
}

var creditsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List credits",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		credits := env.app.Credits()
		if creditCURP != "" {
			credits = env.app.CreditsOf(creditCURP)
		}

		if creditsJSON {
			return printJSON(credits)
		}

		if len(credits) == 0 {
			fmt.Println("No credits placed.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tCURP\tMONTO\tPLAZO\tSEMANAL\tFECHA\tVENCIMIENTO")

		for _, c := range credits {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				c.ID, c.CURP, c.Monto.StringFixed(2), c.Plazo, c.PagoSemanal.StringFixed(2),
				model.FormatDate(c.Fecha), model.FormatDate(c.Vencimiento))
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(creditsCmd)
	creditsCmd.AddCommand(creditsAddCmd, creditsListCmd)

	creditsAddCmd.Flags().StringVar(&creditCURP, "curp", "", "Client CURP")
	decimalVar(creditsAddCmd.Flags(), &creditMonto, "monto", decimal.Zero, "Principal")
	creditsAddCmd.Flags().IntVar(&creditPlazo, "plazo", 0, "Term in weeks")
	creditsAddCmd.Flags().StringVar(&creditFecha, "fecha", "", "Start date YYYY-MM-DD (default today)")
	_ = creditsAddCmd.MarkFlagRequired("curp")
	_ = creditsAddCmd.MarkFlagRequired("monto")
	_ = creditsAddCmd.MarkFlagRequired("plazo")

	creditsListCmd.Flags().StringVar(&creditCURP, "curp", "", "Only credits of this client")
	creditsListCmd.Flags().BoolVar(&creditsJSON, "json", false, "Output as JSON")
}
