package core

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/rules"
	"github.com/shopspring/decimal"
)

// PaymentInput is a collection request. A zero Fecha means now and an
// empty Tipo means normal.
type PaymentInput struct {
	CreditoID string            `json:"creditoId"`
	Monto     decimal.Decimal   `json:"monto"`
	Fecha     time.Time         `json:"fecha"`
	Tipo      model.PaymentType `json:"tipo"`
}

var paymentTypes = []model.PaymentType{
	model.PaymentNormal,
	model.PaymentExtraordinary,
	model.PaymentUpdated,
}

// RecordPayment records a payment against a known credit and computes the
// collector commission.
func (a *App) RecordPayment(ctx context.Context, in PaymentInput, by string) (model.Payment, error) {
	credit, err := a.FindCredit(in.CreditoID)
	if err != nil {
		return model.Payment{}, err
	}

	if !in.Monto.IsPositive() {
		return model.Payment{}, invalid(ErrInvalidPayment, "monto", "must be positive")
	}

	tipo := model.PaymentType(strings.ToLower(strings.TrimSpace(string(in.Tipo))))
	if tipo == "" {
		tipo = model.PaymentNormal
	}

	if !slices.Contains(paymentTypes, tipo) {
		return model.Payment{}, invalid(ErrInvalidPayment, "tipo", "must be normal, extraordinary or updated")
	}

	fecha := in.Fecha
	if fecha.IsZero() {
		fecha = a.now()
	}

	p := model.Payment{
		ID:            strings.ToUpper(a.newID()),
		CreditoID:     credit.ID,
		Monto:         in.Monto,
		Fecha:         fecha,
		Tipo:          tipo,
		Comision:      rules.Commission(in.Monto, tipo),
		RegistradoPor: by,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.payments = append(a.payments, p)

	if err := a.persist(ctx, KeyPayments, a.payments); err != nil {
		a.payments = a.payments[:len(a.payments)-1]
		return model.Payment{}, err
	}

	a.enqueue(ctx, localstore.TablePayments, p.SheetRow())

	a.logger.Info("payment recorded", "id", p.ID, "credito", p.CreditoID, "monto", p.Monto.StringFixed(2), "tipo", p.Tipo)

	return p, nil
}

// Payments returns the local payments followed by the mirrored ones.
func (a *App) Payments() []model.Payment {
	a.mu.RLock()
	out := cloneOf(a.payments)
	a.mu.RUnlock()

	if a.mirror == nil {
		return out
	}

	seen := make(map[string]bool, len(out))
	for _, p := range out {
		if p.ID != "" {
			seen[p.ID] = true
		}
	}

	for _, p := range a.mirror.Payments() {
		if p.ID == "" || !seen[p.ID] {
			out = append(out, p)
		}
	}

	return out
}

// PaymentsFor returns the payments made against creditID, ignoring case.
func (a *App) PaymentsFor(creditID string) []model.Payment {
	creditID = strings.TrimSpace(creditID)
	out := []model.Payment{}

	for _, p := range a.Payments() {
		if strings.EqualFold(p.CreditoID, creditID) {
			out = append(out, p)
		}
	}

	return out
}
