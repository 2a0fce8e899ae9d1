package web

import (
	"net/http"
	"strconv"

	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/rules"
	"github.com/shopspring/decimal"
)

type weeklyQuote struct {
	Monto       decimal.Decimal `json:"monto"`
	Plazo       int             `json:"plazo"`
	Tasa        decimal.Decimal `json:"tasa"`
	PagoSemanal decimal.Decimal `json:"pagoSemanal"`
	Total       decimal.Decimal `json:"total"`
}

type commissionQuote struct {
	Monto    decimal.Decimal   `json:"monto"`
	Tipo     model.PaymentType `json:"tipo"`
	Tasa     decimal.Decimal   `json:"tasa"`
	Comision decimal.Decimal   `json:"comision"`
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if s.worker == nil {
		s.jsonError(w, "Sync is disabled", http.StatusServiceUnavailable)
		return
	}

	status, err := s.worker.Status(r.Context(), r.URL.Query().Get("entries") == "true")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.ok(w, status)
}

// handleSyncNow drains the queue without waiting for the next tick
func (s *Server) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	if s.worker == nil {
		s.jsonError(w, "Sync is disabled", http.StatusServiceUnavailable)
		return
	}

	result, err := s.worker.DrainOnce(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.ok(w, result)
}

// handleCalcWeekly quotes the weekly installment of a credit
func (s *Server) handleCalcWeekly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	monto, err := decimal.NewFromString(q.Get("monto"))
	if err != nil {
		s.jsonError(w, "invalid monto", http.StatusBadRequest)
		return
	}

	plazo, err := strconv.Atoi(q.Get("plazo"))
	if err != nil {
		s.jsonError(w, "invalid plazo", http.StatusBadRequest)
		return
	}

	tasa := s.app.Config().TasaInteres
	if raw := q.Get("tasa"); raw != "" {
		if tasa, err = decimal.NewFromString(raw); err != nil {
			s.jsonError(w, "invalid tasa", http.StatusBadRequest)
			return
		}
	}

	weekly, err := rules.WeeklyPayment(monto, plazo, tasa)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.ok(w, weeklyQuote{
		Monto:       monto,
		Plazo:       plazo,
		Tasa:        tasa,
		PagoSemanal: weekly,
		Total:       monto.Add(monto.Mul(tasa)).Round(2),
	})
}

func (s *Server) handleCalcCommission(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	monto, err := decimal.NewFromString(q.Get("monto"))
	if err != nil {
		s.jsonError(w, "invalid monto", http.StatusBadRequest)
		return
	}

	tipo := model.PaymentType(q.Get("tipo"))
	if tipo == "" {
		tipo = model.PaymentNormal
	}

	s.ok(w, commissionQuote{
		Monto:    monto,
		Tipo:     tipo,
		Tasa:     rules.CommissionRate(tipo),
		Comision: rules.Commission(monto, tipo),
	})
}
