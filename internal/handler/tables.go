package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/store"
)

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService; narrow interface for testability.
type TableServicer interface {
	CreateTable(ctx context.Context, tenantID uuid.UUID, name, note string) (*store.Table, error)
	GetTable(ctx context.Context, tenantID, tableID uuid.UUID) (*store.Table, error)
	ListTables(ctx context.Context, tenantID uuid.UUID) ([]*store.Table, error)
	DeleteTable(ctx context.Context, tenantID, tableID uuid.UUID) error
	SetStatus(ctx context.Context, actor service.Actor, tenantID, tableID uuid.UUID, status, customerName, note string) (*store.Table, error)
}

// TableHandler handles table endpoints.
type TableHandler struct {
	svc TableServicer
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(svc TableServicer) *TableHandler {
	return &TableHandler{svc: svc}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/tables
// Create and Delete are additionally role-gated at the router level.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.SetStatus)
}

// RegisterAdminRoutes registers the ADMIN-only table endpoints.
func (h *TableHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createTableRequest struct {
	Name string `json:"name"`
	Note string `json:"note"`
}

type setTableStatusRequest struct {
	Status       string `json:"status"`
	CustomerName string `json:"customer_name"`
	Note         string `json:"note"`
}

type tableResponse struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	CustomerName string    `json:"customer_name,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// --- Handlers ---

// Create handles POST /tenants/{tid}/tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}

	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	table, err := h.svc.CreateTable(r.Context(), tenantID, req.Name, req.Note)
	if err != nil {
		writeServiceError(w, err, "create table")
		return
	}
	writeJSON(w, http.StatusCreated, tableToResponse(table))
}

// List handles GET /tenants/{tid}/tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}

	tables, err := h.svc.ListTables(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err, "list tables")
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = tableToResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": resp})
}

// Get handles GET /tenants/{tid}/tables/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	table, err := h.svc.GetTable(r.Context(), tenantID, tableID)
	if err != nil {
		writeServiceError(w, err, "get table")
		return
	}
	writeJSON(w, http.StatusOK, tableToResponse(table))
}

// SetStatus handles PATCH /tenants/{tid}/tables/{id}/status.
func (h *TableHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req setTableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	table, err := h.svc.SetStatus(r.Context(), actorFromClaims(claims), tenantID, tableID, req.Status, req.CustomerName, req.Note)
	if err != nil {
		writeServiceError(w, err, "set table status")
		return
	}
	writeJSON(w, http.StatusOK, tableToResponse(table))
}

// Delete handles DELETE /tenants/{tid}/tables/{id}.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	if err := h.svc.DeleteTable(r.Context(), tenantID, tableID); err != nil {
		writeServiceError(w, err, "delete table")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func tableToResponse(t *store.Table) tableResponse {
	return tableResponse{
		ID:           t.ID,
		TenantID:     t.TenantID,
		Name:         t.Name,
		Status:       t.Status,
		CustomerName: t.CustomerName,
		Note:         t.Note,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
