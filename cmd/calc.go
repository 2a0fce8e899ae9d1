package cmd

import (
	"fmt"

	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	calcMonto decimal.Decimal
	calcPlazo int
	calcTasa  decimal.Decimal
	calcTipo  string
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Loan calculators",
}

var calcWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Quote the weekly installment of a credit",
	Long: `Quote the weekly installment: (monto + monto*tasa) / plazo, rounded to
cents.

Examples:
  finzana calc weekly --monto 1000 --plazo 10
  finzana calc weekly --monto 1000 --plazo 10 --tasa 0.2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		monto, tasa := calcMonto, calcTasa

		weekly, err := rules.WeeklyPayment(monto, calcPlazo, tasa)
		if err != nil {
			return err
		}

		fmt.Printf("Weekly payment: %s\n", weekly.StringFixed(2))
		fmt.Printf("Total to repay: %s\n", monto.Add(monto.Mul(tasa)).StringFixed(2))

		return nil
	},
}

var calcCommissionCmd = &cobra.Command{
	Use:   "commission",
	Short: "Quote the collector commission of a payment",
	RunE: func(cmd *cobra.Command, args []string) error {
		tipo := model.PaymentType(calcTipo)

		fmt.Printf("Commission (%s at %s): %s\n",
			tipo, rules.CommissionRate(tipo).String(), rules.Commission(calcMonto, tipo).StringFixed(2))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(calcCmd)
	calcCmd.AddCommand(calcWeeklyCmd, calcCommissionCmd)

	decimalVar(calcCmd.PersistentFlags(), &calcMonto, "monto", decimal.Zero, "Amount")
	_ = calcCmd.MarkPersistentFlagRequired("monto")

	calcWeeklyCmd.Flags().IntVar(&calcPlazo, "plazo", 0, "Term in weeks")
	decimalVar(calcWeeklyCmd.Flags(), &calcTasa, "tasa", rules.DefaultInterestRate, "Flat interest rate")
	_ = calcWeeklyCmd.MarkFlagRequired("plazo")

	calcCommissionCmd.Flags().StringVar(&calcTipo, "tipo", string(model.PaymentNormal), "Payment type")
}
