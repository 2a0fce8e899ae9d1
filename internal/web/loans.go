package web

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/inovacc/finzana/internal/core"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/report"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type clientDetail struct {
	Client  model.Client   `json:"cliente"`
	Credits []model.Credit `json:"creditos"`
}

type creditRequest struct {
	CURP  string          `json:"curp"`
	Monto decimal.Decimal `json:"monto"`
	Plazo int             `json:"plazo"`
	Fecha string          `json:"fecha"`
}

type paymentRequest struct {
	CreditoID string            `json:"creditoId"`
	Monto     decimal.Decimal   `json:"monto"`
	Fecha     string            `json:"fecha"`
	Tipo      model.PaymentType `json:"tipo"`
}

func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, s.app.Clients())
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in core.ClientInput
	if err := s.decodeBody(r, &in); err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	client, err := s.app.RegisterClient(r.Context(), in, currentUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.created(w, "Client registered", client)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.app.FindClient(r.PathValue("curp"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.ok(w, clientDetail{Client: client, Credits: s.app.CreditsOf(client.CURP)})
}

func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	if curp := r.URL.Query().Get("curp"); curp != "" {
		s.ok(w, s.app.CreditsOf(curp))
		return
	}

	s.ok(w, s.app.Credits())
}

func (s *Server) handleCreateCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fecha, err := optionalDate(req.Fecha)
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	credit, err := s.app.PlaceCredit(r.Context(), core.CreditInput{
		CURP:  req.CURP,
		Monto: req.Monto,
		Plazo: req.Plazo,
		Fecha: fecha,
	}, currentUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.created(w, "Credit placed", credit)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("credito"); id != "" {
		s.ok(w, s.app.PaymentsFor(id))
		return
	}

	s.ok(w, s.app.Payments())
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fecha, err := optionalDate(req.Fecha)
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	payment, err := s.app.RecordPayment(r.Context(), core.PaymentInput{
		CreditoID: req.CreditoID,
		Monto:     req.Monto,
		Fecha:     fecha,
		Tipo:      req.Tipo,
	}, currentUser(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.created(w, "Payment recorded", payment)
}

func (s *Server) handleDelinquent(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.dateParam(r, "asOf")
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.ok(w, s.app.Delinquent(asOf))
}

// handleDelinquentReport streams the delinquency workbook
func (s *Server) handleDelinquentReport(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.dateParam(r, "asOf")
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	names := make(map[string]string)
	for _, c := range s.app.Clients() {
		names[c.CURP] = c.Nombre
	}

	var buf bytes.Buffer
	if err := report.Delinquent(&buf, s.app.Delinquent(asOf), names, asOf); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="cartera-vencida-`+model.FormatDate(asOf)+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))

	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("failed to send report", "error", err)
	}
}
