package http

import (
	"net/http"
	"time"

	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/log"
	"tally/internal/stats"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.sessions.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: s.sessions.Token()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: s.sessions.Token()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Loading() {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable,
			errorResponse{Error: "session restoration in progress"})
		return
	}

	user := s.sessions.CurrentUser()
	if user == nil {
		writeError(w, core.NewAuthError("no authenticated user"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// requireUser rejects the request when no identity is current.
func (s *Server) requireUser(w http.ResponseWriter) bool {
	if s.sessions.CurrentUser() == nil {
		writeError(w, core.NewAuthError("no authenticated user"))
		return false
	}
	return true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if !s.requireUser(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Transactions())
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.requireUser(w) {
		return
	}

	var in core.TransactionInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	created, err := s.store.AddTransaction(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.requireUser(w) {
		return
	}

	id := r.PathValue("id")
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if !s.requireUser(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if !s.requireUser(w) {
		return
	}

	var in core.CategoryInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.store.AddCategory(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireUser(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Stats())
}

type analyticsResponse struct {
	Timeframe          string                 `json:"timeframe"`
	Monthly            []stats.MonthlySummary `json:"monthly"`
	ExpensesByCategory []stats.CategoryTotal  `json:"expensesByCategory"`
	IncomeByCategory   []stats.CategoryTotal  `json:"incomeByCategory"`
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if !s.requireUser(w) {
		return
	}

	tf := stats.Timeframe(r.URL.Query().Get("timeframe"))
	if tf == "" {
		tf = stats.TimeframeAll
	}
	if !tf.IsValid() {
		writeError(w, core.NewValidationError(
			"invalid timeframe: must be one of [all 30days 6months 1year]"))
		return
	}

	key := string(tf)
	if resp, ok := s.analyticsCache.Get(key); ok {
		s.logger.Debug("Analytics cache hit", log.FieldTimeframe, key)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	filtered := stats.FilterByTimeframe(s.store.Transactions(), tf, time.Now())
	resp := analyticsResponse{
		Timeframe:          key,
		Monthly:            stats.GroupByMonth(filtered),
		ExpensesByCategory: stats.GroupByCategory(filtered, core.Expense),
		IncomeByCategory:   stats.GroupByCategory(filtered, core.Income),
	}

	s.analyticsCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !s.requireUser(w) {
		return
	}

	typ := core.TransactionType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = core.Expense
	}
	if !typ.IsValid() {
		writeError(w, core.NewValidationError("type must be expense or income"))
		return
	}

	transactions := s.store.Transactions()

	if r.URL.Query().Get("target") == "sheets" {
		if s.exporter == nil {
			writeError(w, core.NewValidationError("spreadsheet export is not configured"))
			return
		}
		if err := s.exporter.Export(r.Context(), transactions, typ); err != nil {
			s.logger.ErrorContext(r.Context(), "Spreadsheet export failed",
				log.FieldTxType, string(typ), log.FieldError, err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "exported"})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+export.Filename(typ, time.Now())+`"`)
	if err := export.WriteCSV(w, transactions, typ); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed",
			log.FieldTxType, string(typ), log.FieldError, err)
	}
}
