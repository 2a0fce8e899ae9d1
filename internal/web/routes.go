package web

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Session
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/me", s.authenticated(s.handleMe))

	// Clients
	mux.HandleFunc("GET /api/clients", s.authenticated(s.handleListClients))
	mux.HandleFunc("POST /api/clients", s.authenticated(s.handleCreateClient))
	mux.HandleFunc("GET /api/clients/{curp}", s.authenticated(s.handleGetClient))

	// Credits and payments
	mux.HandleFunc("GET /api/credits", s.authenticated(s.handleListCredits))
	mux.HandleFunc("POST /api/credits", s.authenticated(s.handleCreateCredit))
	mux.HandleFunc("GET /api/payments", s.authenticated(s.handleListPayments))
	mux.HandleFunc("POST /api/payments", s.authenticated(s.handleCreatePayment))
	mux.HandleFunc("GET /api/delinquent", s.authenticated(s.handleDelinquent))
	mux.HandleFunc("GET /api/reports/delinquent.xlsx", s.authenticated(s.handleDelinquentReport))

	// Spreadsheet mirror
	mux.HandleFunc("GET /api/sheets", s.authenticated(s.handleMirrorSummary))
	mux.HandleFunc("GET /api/sheets/{name}", s.authenticated(s.handleSheetRows))
	mux.HandleFunc("POST /api/sheets/refresh", s.authenticated(s.handleRefreshSheets))

	// Configuration and users
	mux.HandleFunc("GET /api/config", s.authenticated(s.handleGetConfig))
	mux.HandleFunc("PUT /api/config", s.adminOnly(s.handlePutConfig))
	mux.HandleFunc("POST /api/config/refresh", s.adminOnly(s.handleRefreshConfig))
	mux.HandleFunc("GET /api/users", s.adminOnly(s.handleListUsers))
	mux.HandleFunc("POST /api/users", s.adminOnly(s.handleCreateUser))

	// Local transactions
	mux.HandleFunc("GET /api/transactions", s.authenticated(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.authenticated(s.handleCreateTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.authenticated(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.authenticated(s.handleDeleteTransaction))

	// Sync queue
	mux.HandleFunc("GET /api/sync", s.authenticated(s.handleSyncStatus))
	mux.HandleFunc("POST /api/sync", s.authenticated(s.handleSyncNow))

	// Calculators
	mux.HandleFunc("GET /api/calc/weekly", s.authenticated(s.handleCalcWeekly))
	mux.HandleFunc("GET /api/calc/commission", s.authenticated(s.handleCalcCommission))

	// System
	mux.HandleFunc("GET /health", s.handleHealth)
}
