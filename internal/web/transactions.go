package web

import (
	"net/http"
	"time"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type transactionPatchRequest struct {
	Date        *string          `json:"date"`
	Type        *string          `json:"type"`
	Category    *string          `json:"category"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
}

// handleListTransactions lists transactions, filtered by type, category
// or date when one is given.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := s.app.Store()
	q := r.URL.Query()

	var (
		txs []model.Transaction
		err error
	)

	switch {
	case q.Get("type") != "":
		txs, err = localstore.TransactionsByType(ctx, store, q.Get("type"))
	case q.Get("category") != "":
		txs, err = localstore.TransactionsByCategory(ctx, store, q.Get("category"))
	case q.Get("date") != "":
		var day time.Time

		day, err = model.ParseDate(q.Get("date"))
		if err != nil {
			s.jsonError(w, "invalid date", http.StatusBadRequest)
			return
		}

		txs, err = localstore.TransactionsOn(ctx, store, day)
	default:
		txs, err = localstore.ListTransactions(ctx, store)
	}

	if err != nil {
		s.writeError(w, err)
		return
	}

	s.ok(w, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Type == "" {
		s.jsonError(w, "type required", http.StatusBadRequest)
		return
	}

	date := s.now()
	if req.Date != "" {
		d, err := model.ParseDate(req.Date)
		if err != nil {
			s.jsonError(w, "invalid date", http.StatusBadRequest)
			return
		}

		date = d
	}

	tx := model.Transaction{
		Date:        date,
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}

	id, err := localstore.AddTransaction(r.Context(), s.app.Store(), tx)
	if err != nil {
		s.writeError(w, err)
		return
	}

	stored, err := localstore.GetTransaction(r.Context(), s.app.Store(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.created(w, "Transaction added", stored)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req transactionPatchRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch := localstore.TransactionPatch{
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}

	if req.Date != nil {
		d, err := model.ParseDate(*req.Date)
		if err != nil {
			s.jsonError(w, "invalid date", http.StatusBadRequest)
			return
		}

		patch.Date = &d
	}

	if patch.Empty() {
		s.jsonError(w, "nothing to update", http.StatusBadRequest)
		return
	}

	if err := localstore.UpdateTransaction(r.Context(), s.app.Store(), id, patch); err != nil {
		s.writeError(w, err)
		return
	}

	updated, err := localstore.GetTransaction(r.Context(), s.app.Store(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.ok(w, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := localstore.DeleteTransaction(r.Context(), s.app.Store(), id); err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, APIResponse{Success: true, Message: "Transaction deleted"})
}
