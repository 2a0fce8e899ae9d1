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
	paymentCredit string
	paymentMonto  decimal.Decimal
	paymentTipo   string
	paymentFecha  string
	paymentsJSON  bool
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Record and list payments",
}

var paymentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a payment against a credit",
	Long: `Record a payment. The type is normal, extraordinary or updated and
decides the collector commission.

Examples:
  finzana payments add --credito 6F1C2A --monto 350
  finzana payments add --credito 6F1C2A --monto 1000 --tipo extraordinary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := core.PaymentInput{CreditoID: paymentCredit, Monto: paymentMonto, Tipo: model.PaymentType(paymentTipo)}

		if paymentFecha != "" {
			var err error
			if in.Fecha, err = model.ParseDate(paymentFecha); err != nil {
				return fmt.Errorf("invalid --fecha: %w", err)
			}
		}

		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		payment, err := env.app.RecordPayment(cmd.Context(), in, actingUser)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Payment %s recorded: %s (%s), commission %s\n",
			payment.ID, payment.Monto.StringFixed(2), payment.Tipo, payment.Comision.StringFixed(2))

		return nil
	},
}

var paymentsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List payments",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		payments := env.app.Payments()
		if paymentCredit != "" {
			payments = env.app.PaymentsFor(paymentCredit)
		}

		if paymentsJSON {
			return printJSON(payments)
		}

		if len(payments) == 0 {
			fmt.Println("No payments recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tCREDITO\tMONTO\tTIPO\tCOMISION\tFECHA")

		for _, p := range payments {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.CreditoID, p.Monto.StringFixed(2), p.Tipo, p.Comision.StringFixed(2), model.FormatDate(p.Fecha))
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(paymentsCmd)
	paymentsCmd.AddCommand(paymentsAddCmd, paymentsListCmd)

	paymentsAddCmd.Flags().StringVar(&paymentCredit, "credito", "", "Credit id")
	decimalVar(paymentsAddCmd.Flags(), &paymentMonto, "monto", decimal.Zero, "Amount paid")
	paymentsAddCmd.Flags().StringVar(&paymentTipo, "tipo", string(model.PaymentNormal), "Payment type")
	paymentsAddCmd.Flags().StringVar(&paymentFecha, "fecha", "", "Payment date YYYY-MM-DD (default now)")
	_ = paymentsAddCmd.MarkFlagRequired("credito")
	_ = paymentsAddCmd.MarkFlagRequired("monto")

	paymentsListCmd.Flags().StringVar(&paymentCredit, "credito", "", "Only payments of this credit")
	paymentsListCmd.Flags().BoolVar(&paymentsJSON, "json", false, "Output as JSON")
}
