package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/parser"

	"github.com/go-chi/chi/v5"
)

type parseResponse struct {
	Transaction core.ParsedTransaction `json:"transaction"`
	Match       parser.MatchKind       `json:"match"`
	NeedsReview bool                   `json:"needsReview"`
}

// requireUser rejects requests that do not name a user.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r) == "" {
			status, msg := statusFor(core.ErrEmptyUser)
			writeError(w, status, msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ready(r.Context()); err != nil {
		s.events.LogError(r.Context(), "Readiness check failed", err, applog.ErrorTypeStorage, applog.OpReady, nil)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpParse)
		return
	}
	res, err := s.store.Parse(r.Context(), req.Text)
	if err != nil {
		s.fail(w, r, err, applog.OpParse)
		return
	}
	writeData(w, http.StatusOK, parseResponse{
		Transaction: res.Transaction,
		Match:       res.Match,
		NeedsReview: res.NeedsReview(),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, err, applog.OpList)
		return
	}
	txs, err := s.store.List(r.Context(), user, f)
	if err != nil {
		s.fail(w, r, err, applog.OpList)
		return
	}
	writeData(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpAppend)
		return
	}
	in, err := req.toNewTransaction(core.DateOf(s.now().UTC()))
	if err != nil {
		s.fail(w, r, err, applog.OpAppend)
		return
	}
	t, err := s.store.Append(r.Context(), user, in)
	if err != nil {
		s.fail(w, r, err, applog.OpAppend)
		return
	}
	writeData(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	var req patchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	found, err := s.store.Update(r.Context(), user, chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": chi.URLParam(r, "id")})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	found, err := s.store.Remove(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, applog.OpRemove)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": chi.URLParam(r, "id")})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	summary, err := s.store.Summary(r.Context(), user)
	if err != nil {
		s.fail(w, r, err, applog.OpSummary)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	cats, err := s.store.Categories(r.Context(), user)
	if err != nil {
		s.fail(w, r, err, applog.OpCategories)
		return
	}
	writeData(w, http.StatusOK, cats)
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, core.Categories())
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	trend, err := s.store.Trend(r.Context(), user)
	if err != nil {
		s.fail(w, r, err, applog.OpTrend)
		return
	}
	writeData(w, http.StatusOK, trend)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	months, err := parseMonths(r.URL.Query())
	if err != nil {
		s.fail(w, r, err, applog.OpMonthly)
		return
	}
	points, err := s.store.Monthly(r.Context(), userID(r), months)
	if err != nil {
		s.fail(w, r, err, applog.OpMonthly)
		return
	}
	writeData(w, http.StatusOK, points)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	d, err := s.store.Dashboard(r.Context(), user)
	if err != nil {
		s.fail(w, r, err, applog.OpDashboard)
		return
	}
	writeData(w, http.StatusOK, d)
}

// fail writes the error response for err and logs server-side failures.
// Cancelled and timed out requests are logged at warn level.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	status, msg := statusFor(err)
	switch {
	case status == statusClientClosed || status == http.StatusGatewayTimeout:
		s.logger.WarnContext(r.Context(), "Request abandoned",
			applog.FieldOperation, op,
			applog.FieldUserID, userID(r),
			applog.FieldStatusCode, status,
			"reason", err.Error())
	case status >= http.StatusInternalServerError:
		errType := applog.ErrorTypeInternal
		if status == http.StatusServiceUnavailable {
			errType = applog.ErrorTypeStorage
		}
		s.events.LogError(r.Context(), "Request failed", err, errType, op,
			applog.NewFields().WithUser(userID(r)))
	}
	writeError(w, status, msg)
}
