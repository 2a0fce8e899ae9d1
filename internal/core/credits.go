package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/rules"
	"github.com/shopspring/decimal"
)

// CreditInput is a placement request. A zero Fecha means today.
type CreditInput struct {
	CURP  string          `json:"curp"`
	Monto decimal.Decimal `json:"monto"`
	Plazo int             `json:"plazo"`
	Fecha time.Time       `json:"fecha"`
}

// PlaceCredit records a new credit for a known client. The weekly
// installment uses the configured interest rate and the credit falls due
// Plazo weeks after it starts.
func (a *App) PlaceCredit(ctx context.Context, in CreditInput, by string) (model.Credit, error) {
	curp := model.NormalizeCURP(in.CURP)

	if _, err := a.FindClient(curp); err != nil {
		return model.Credit{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !in.Monto.IsPositive() {
		return model.Credit{}, invalid(ErrInvalidCredit, "monto", "must be positive")
	}

	if in.Plazo <= 0 || !a.config.AllowsTerm(in.Plazo) {
		return model.Credit{}, invalid(ErrInvalidCredit, "plazo", "is not a configured term")
	}

	weekly, err := rules.WeeklyPayment(in.Monto, in.Plazo, a.config.TasaInteres)
	if err != nil {
		if errors.Is(err, rules.ErrInvalidArgument) {
			return model.Credit{}, invalid(ErrInvalidCredit, "monto", err.Error())
		}

		return model.Credit{}, err
	}

	start := in.Fecha
	if start.IsZero() {
		start = a.now()
	}

	start = dayOf(start)

	c := model.Credit{
		ID:            strings.ToUpper(a.newID()),
		CURP:          curp,
		Monto:         in.Monto,
		Plazo:         in.Plazo,
		Fecha:         start,
		Vencimiento:   start.AddDate(0, 0, 7*in.Plazo),
		PagoSemanal:   weekly,
		RegistradoPor: by,
	}

	a.credits = append(a.credits, c)

	if err := a.persist(ctx, KeyCredits, a.credits); err != nil {
		a.credits = a.credits[:len(a.credits)-1]
		return model.Credit{}, err
	}

	a.enqueue(ctx, localstore.TableCredits, c.SheetRow())

	a.logger.Info("credit placed", "id", c.ID, "curp", c.CURP, "monto", c.Monto.StringFixed(2), "plazo", c.Plazo)

	return c, nil
}

// Credits returns the local credits followed by the mirrored ones.
func (a *App) Credits() []model.Credit {
	a.mu.RLock()
	out := cloneOf(a.credits)
	a.mu.RUnlock()

	if a.mirror == nil {
		return out
	}

	seen := make(map[string]bool, len(out))
	for _, c := range out {
		seen[c.ID] = true
	}

	for _, c := range a.mirror.Credits() {
		if !seen[c.ID] {
			out = append(out, c)
		}
	}

	return out
}

// FindCredit looks a credit up by id, ignoring case.
func (a *App) FindCredit(id string) (model.Credit, error) {
	id = strings.TrimSpace(id)

	for _, c := range a.Credits() {
		if strings.EqualFold(c.ID, id) {
			return c, nil
		}
	}

	return model.Credit{}, &ValidationError{Kind: ErrUnknownCredit, Field: "creditoId", Reason: id}
}

// CreditsOf returns the credits placed with curp.
func (a *App) CreditsOf(curp string) []model.Credit {
	curp = model.NormalizeCURP(curp)
	out := []model.Credit{}

	for _, c := range a.Credits() {
		if c.CURP == curp {
			out = append(out, c)
		}
	}

	return out
}

// Delinquent lists the credits delinquent as of asOf.
func (a *App) Delinquent(asOf time.Time) []rules.Delinquency {
	return rules.Delinquencies(a.Credits(), a.Payments(), asOf)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
