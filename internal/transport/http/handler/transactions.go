package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spendsmart-api/internal/application/dashboard"
	"github.com/spendsmart-api/internal/application/transaction"
	"github.com/spendsmart-api/internal/domain"
)

// TransactionHandler handles transaction CRUD and the dashboard summary.
type TransactionHandler struct {
	svc       transaction.Service
	dashboard dashboard.Service
}

func NewTransactionHandler(svc transaction.Service, dash dashboard.Service) *TransactionHandler {
	return &TransactionHandler{svc: svc, dashboard: dash}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	txs, err := h.svc.List(r.Context(), userID, domain.TransactionFilter{
		Start:      start,
		End:        end,
		Type:       domain.TransactionType(strings.ToUpper(q.Get("type"))),
		CategoryID: q.Get("categoryId"),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	resp := make([]TransactionResponse, len(txs))
	for i := range txs {
		resp[i] = toTransactionResponse(&txs[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var input domain.TransactionInput
	if !decode(w, r, &input) {
		return
	}
	t, err := h.svc.Create(r.Context(), userID, input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var input domain.TransactionInput
	if !decode(w, r, &input) {
		return
	}
	t, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}
	sum, err := h.dashboard.Summary(r.Context(), userID, start, end)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(sum))
}

// dateRange parses the optional startDate and endDate query parameters.
func dateRange(w http.ResponseWriter, r *http.Request) (start, end *time.Time, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"startDate", &start}, {"endDate", &end}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		d, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be in YYYY-MM-DD format", p.name))
			return nil, nil, false
		}
		*p.dst = &d
	}
	return start, end, true
}
