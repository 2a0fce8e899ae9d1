package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/inovacc/finzana/internal/core"
	"github.com/inovacc/finzana/internal/encoding"
	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/rules"
	"github.com/inovacc/finzana/internal/sheets"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// APIResponse is a generic API response
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type loginRequest struct {
	Usuario  string `json:"usuario"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// handleLogin exchanges credentials for a session token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.app.Login(req.Usuario, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, expires, err := s.tokens.Issue(user.Usuario, user.Nombre, user.Tipo)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    loginResponse{Token: token, ExpiresAt: expires, User: user},
	})
}

// handleMe returns the claims of the current session
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.ok(w, claimsFrom(r.Context()))
}

// handleHealth returns health check status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

// decodeBody parses a JSON request body into v.
func (s *Server) decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	if len(data) == 0 {
		return errors.New("request body required")
	}

	return encoding.Decode(data, v)
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	var validation *core.ValidationError

	switch {
	case errors.As(err, &validation),
		errors.Is(err, core.ErrInvalidClient),
		errors.Is(err, core.ErrInvalidCredit),
		errors.Is(err, core.ErrInvalidPayment),
		errors.Is(err, core.ErrInvalidUser),
		errors.Is(err, core.ErrInvalidConfig),
		errors.Is(err, rules.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUnknownClient),
		errors.Is(err, core.ErrUnknownCredit),
		errors.Is(err, localstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateClient),
		errors.Is(err, core.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, sheets.ErrNetworkFailure):
		return http.StatusBadGateway
	case errors.Is(err, localstore.ErrStorageUnavailable),
		errors.Is(err, localstore.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with its mapped status. Internal errors are
// logged and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		message = "Internal server error"
	}

	s.jsonError(w, message, status)
}

// ok writes a successful envelope around data
func (s *Server) ok(w http.ResponseWriter, data any) {
	s.jsonResponse(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// created writes a 201 envelope around data
func (s *Server) created(w http.ResponseWriter, message string, data any) {
	s.jsonResponse(w, http.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("JSON encode error", "error", err)
	}
}

// jsonError writes a JSON error response
func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	s.jsonResponse(w, status, APIResponse{
		Success: false,
		Error:   message,
	})
}

// dateParam parses a YYYY-MM-DD query parameter, falling back to today.
func (s *Server) dateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return s.now(), nil
	}

	t, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}

	return t, nil
}

// optionalDate parses a request date; empty means the zero time.
func optionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid fecha: %w", err)
	}

	return t, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}

	return id, nil
}
