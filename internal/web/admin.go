package web

import (
	"net/http"

	"github.com/inovacc/finzana/internal/core"
	"github.com/inovacc/finzana/internal/model"
)

type configRefresh struct {
	Config    model.Config `json:"config"`
	FromSheet bool         `json:"fromSheet"`
}

func (s *Server) handleMirrorSummary(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, s.app.MirrorSummary())
}

// handleSheetRows returns the mirrored rows of one sheet
func (s *Server) handleSheetRows(w http.ResponseWriter, r *http.Request) {
	mirror := s.app.Mirror()
	if mirror == nil {
		s.jsonError(w, "Spreadsheet mirror not configured", http.StatusNotFound)
		return
	}

	name := r.PathValue("name")

	rows, ok := mirror.Rows(name)
	if !ok {
		s.jsonError(w, "Unknown sheet "+name, http.StatusNotFound)
		return
	}

	s.ok(w, rows)
}

func (s *Server) handleRefreshSheets(w http.ResponseWriter, r *http.Request) {
	if s.app.Mirror() == nil {
		s.jsonError(w, "Spreadsheet mirror not configured", http.StatusNotFound)
		return
	}

	summary := s.app.RefreshMirror(r.Context())

	message := "Sheets refreshed"
	if !summary.OK() {
		message = "Some sheets could not be fetched"
	}

	s.jsonResponse(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: summary})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, s.app.Config())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var patch core.ConfigPatch
	if err := s.decodeBody(r, &patch); err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg, err := s.app.UpdateConfig(r.Context(), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, APIResponse{Success: true, Message: "Configuration saved", Data: cfg})
}

func (s *Server) handleRefreshConfig(w http.ResponseWriter, r *http.Request) {
	cfg, fromSheet, err := s.app.RefreshConfig(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.ok(w, configRefresh{Config: cfg, FromSheet: fromSheet})
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, s.app.Users())
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in core.UserInput
	if err := s.decodeBody(r, &in); err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.app.AddUser(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.created(w, "User created", user)
}
