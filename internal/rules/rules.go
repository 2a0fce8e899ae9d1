// Package rules holds the pure lending calculations: weekly installments,
// collector commissions and delinquency.
package rules

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/inovacc/finzana/internal/model"
	"github.com/shopspring/decimal"
)

// ErrInvalidArgument is returned for inputs a calculation cannot accept.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultInterestRate is the flat rate charged over the whole term.
var DefaultInterestRate = decimal.RequireFromString("0.15")

var commissionRates = map[model.PaymentType]decimal.Decimal{
	model.PaymentNormal:        decimal.RequireFromString("0.10"),
	model.PaymentExtraordinary: decimal.RequireFromString("0.05"),
	model.PaymentUpdated:       decimal.RequireFromString("0.08"),
}

// WeeklyPayment returns (principal + principal*rate) / termWeeks rounded
// half away from zero to cents.
func WeeklyPayment(principal decimal.Decimal, termWeeks int, rate decimal.Decimal) (decimal.Decimal, error) {
	if termWeeks <= 0 {
		return decimal.Zero, fmt.Errorf("%w: term must be positive, got %d weeks", ErrInvalidArgument, termWeeks)
	}

	if principal.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative principal %s", ErrInvalidArgument, principal)
	}

	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative rate %s", ErrInvalidArgument, rate)
	}

	total := principal.Add(principal.Mul(rate))

	return total.Div(decimal.NewFromInt(int64(termWeeks))).Round(2), nil
}

// CommissionRate returns the rate for typ, falling back to the normal rate.
func CommissionRate(typ model.PaymentType) decimal.Decimal {
	if rate, ok := commissionRates[typ]; ok {
		return rate
	}

	return commissionRates[model.PaymentNormal]
}

// Commission returns the collector commission on a payment, rounded to cents.
func Commission(amount decimal.Decimal, typ model.PaymentType) decimal.Decimal {
	return amount.Mul(CommissionRate(typ)).Round(2)
}

// IsDelinquent reports whether asOf is past the credit's due date and no
// payment was ever recorded against it.
func IsDelinquent(credit model.Credit, payments []model.Payment, asOf time.Time) bool {
	return asOf.After(credit.Vencimiento) && len(payments) == 0
}

// DaysDelinquent returns the whole days elapsed since the due date. It is
// negative while the credit is not yet due.
func DaysDelinquent(credit model.Credit, _ []model.Payment, asOf time.Time) int {
	return int(math.Floor(asOf.Sub(credit.Vencimiento).Hours() / 24))
}

// Delinquency is a delinquent credit and how late it is.
type Delinquency struct {
	Credit model.Credit `json:"credito"`
	Client string       `json:"curp"`
	Days   int          `json:"dias"`
}

// Delinquencies returns the delinquent credits as of asOf, most overdue first.
func Delinquencies(credits []model.Credit, payments []model.Payment, asOf time.Time) []Delinquency {
	byCredit := make(map[string][]model.Payment, len(payments))
	for _, p := range payments {
		byCredit[p.CreditoID] = append(byCredit[p.CreditoID], p)
	}

	out := []Delinquency{}

	for _, c := range credits {
		paid := byCredit[c.ID]
		if !IsDelinquent(c, paid, asOf) {
			continue
		}

		out = append(out, Delinquency{
			Credit: c,
			Client: c.CURP,
			Days:   DaysDelinquent(c, paid, asOf),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Days > out[j].Days
	})

	return out
}
