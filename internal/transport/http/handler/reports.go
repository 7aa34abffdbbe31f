package handler

import (
	"net/http"

	"github.com/spendsmart-api/internal/application/report"
)

// ReportHandler exports statements.
type ReportHandler struct {
	svc report.Service
}

func NewReportHandler(svc report.Service) *ReportHandler { return &ReportHandler{svc: svc} }

// Statement renders a PDF statement for the optional startDate/endDate range
// and answers with a presigned download link.
func (h *ReportHandler) Statement(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}
	st, err := h.svc.Statement(r.Context(), userID, start, end)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStatementResponse(st))
}
