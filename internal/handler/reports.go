package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/service"
)

// ReportServicer defines the service methods needed by report handlers.
// Satisfied by *service.ReportService; narrow interface for testability.
type ReportServicer interface {
	Summarize(ctx context.Context, tenantID uuid.UUID, startDate, endDate string) (*service.Summary, error)
	EndOfDay(ctx context.Context, tenantID uuid.UUID, startDate, endDate string) (*service.EndOfDay, error)
}

// ReportHandler handles reporting endpoints.
type ReportHandler struct {
	svc ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(svc ReportServicer) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/reports
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/end-of-day", h.EndOfDay)
}

// Summary handles GET /tenants/{tid}/reports/summary?start_date=&end_date=.
// Both dates default to today when omitted.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	start, end := dateRange(r)

	summary, err := h.svc.Summarize(r.Context(), tenantID, start, end)
	if err != nil {
		writeServiceError(w, err, "report summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// EndOfDay handles GET /tenants/{tid}/reports/end-of-day?start_date=&end_date=.
func (h *ReportHandler) EndOfDay(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	start, end := dateRange(r)

	report, err := h.svc.EndOfDay(r.Context(), tenantID, start, end)
	if err != nil {
		writeServiceError(w, err, "end of day report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func dateRange(r *http.Request) (start, end string) {
	today := time.Now().Format("2006-01-02")
	start = r.URL.Query().Get("start_date")
	if start == "" {
		start = today
	}
	end = r.URL.Query().Get("end_date")
	if end == "" {
		end = today
	}
	return start, end
}
