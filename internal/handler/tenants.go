package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/permission"
	"github.com/mesa-pos/api/internal/store"
)

// TenantStore defines the store methods needed by tenant handlers.
// Satisfied by the full store; narrow interface for testability.
type TenantStore interface {
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*store.Tenant, error)
	UpdateTenant(ctx context.Context, tenantID uuid.UUID, fn func(*store.Tenant) error) (*store.Tenant, error)
	ListTenants(ctx context.Context) ([]*store.Tenant, error)
}

// TenantHandler handles tenant settings and subscription endpoints.
type TenantHandler struct {
	store TenantStore
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(st TenantStore) *TenantHandler {
	return &TenantHandler{store: st}
}

// RegisterSettingsRoutes registers the per-tenant settings endpoints.
// Expected to be mounted inside a tenant-scoped ADMIN subrouter:
// /tenants/{tid}/settings
func (h *TenantHandler) RegisterSettingsRoutes(r chi.Router) {
	r.Get("/", h.GetSettings)
	r.Put("/", h.UpdateSettings)
	r.Put("/permissions", h.UpdatePermissions)
}

// RegisterAdminRoutes registers the SUPER_ADMIN tenant management endpoints
// with full paths. They cannot live in a /tenants mount because the
// tenant-scoped subtree at /tenants/{tid} would shadow them.
func (h *TenantHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/tenants", h.List)
	r.Patch("/tenants/{tid}/subscription", h.UpdateSubscription)
}

// --- Request / Response types ---

type updateSettingsRequest struct {
	Name                 *string `json:"name"`
	Currency             *string `json:"currency"`
	Timezone             *string `json:"timezone"`
	TaxRatePercent       *string `json:"tax_rate_percent"`
	ServiceChargePercent *string `json:"service_charge_percent"`
	RoundingIncrement    *string `json:"rounding_increment"`
}

type updatePermissionsRequest struct {
	Permissions map[string]map[string]bool `json:"permissions"`
}

type updateSubscriptionRequest struct {
	Subscription string `json:"subscription"`
}

type tenantResponse struct {
	ID                   uuid.UUID                  `json:"id"`
	Name                 string                     `json:"name"`
	Slug                 string                     `json:"slug"`
	Currency             string                     `json:"currency"`
	Timezone             string                     `json:"timezone"`
	TaxRatePercent       string                     `json:"tax_rate_percent"`
	ServiceChargePercent string                     `json:"service_charge_percent"`
	RoundingIncrement    string                     `json:"rounding_increment"`
	Subscription         string                     `json:"subscription"`
	TrialEndsAt          *time.Time                 `json:"trial_ends_at,omitempty"`
	Permissions          map[string]map[string]bool `json:"permissions"`
	CreatedAt            time.Time                  `json:"created_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
}

// --- Handlers ---

// GetSettings handles GET /tenants/{tid}/settings.
func (h *TenantHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}

	tenant, err := h.store.GetTenant(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err, "get settings")
		return
	}
	writeJSON(w, http.StatusOK, tenantToResponse(tenant))
}

// UpdateSettings handles PUT /tenants/{tid}/settings.
// Only fields present in the body are updated.
func (h *TenantHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	taxRate, ok := parseOptionalPercent(w, req.TaxRatePercent, "tax_rate_percent")
	if !ok {
		return
	}
	serviceCharge, ok := parseOptionalPercent(w, req.ServiceChargePercent, "service_charge_percent")
	if !ok {
		return
	}

	var rounding *decimal.Decimal
	if req.RoundingIncrement != nil {
		d, err := decimal.NewFromString(*req.RoundingIncrement)
		if err != nil || d.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rounding_increment"})
			return
		}
		rounding = &d
	}

	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid timezone"})
			return
		}
	}

	tenant, err := h.store.UpdateTenant(r.Context(), tenantID, func(t *store.Tenant) error {
		if req.Name != nil {
			t.Name = *req.Name
		}
		if req.Currency != nil {
			t.Currency = *req.Currency
		}
		if req.Timezone != nil {
			t.Timezone = *req.Timezone
		}
		if taxRate != nil {
			t.TaxRatePercent = *taxRate
		}
		if serviceCharge != nil {
			t.ServiceChargePercent = *serviceCharge
		}
		if rounding != nil {
			t.RoundingIncrement = *rounding
		}
		return nil
	})
	if err != nil {
		writeServiceError(w, err, "update settings")
		return
	}
	writeJSON(w, http.StatusOK, tenantToResponse(tenant))
}

// UpdatePermissions handles PUT /tenants/{tid}/settings/permissions.
// The body replaces the tenant's sparse permission overrides wholesale.
func (h *TenantHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}

	var req updatePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	for role, overrides := range req.Permissions {
		if role != enum.RoleWaiter && role != enum.RoleKitchen {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown role: " + role})
			return
		}
		for key := range overrides {
			if !permission.Valid(permission.Key(key)) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown permission key: " + key})
				return
			}
		}
	}

	tenant, err := h.store.UpdateTenant(r.Context(), tenantID, func(t *store.Tenant) error {
		t.Permissions = req.Permissions
		return nil
	})
	if err != nil {
		writeServiceError(w, err, "update permissions")
		return
	}
	writeJSON(w, http.StatusOK, tenantToResponse(tenant))
}

// List handles GET /tenants (SUPER_ADMIN only).
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.store.ListTenants(r.Context())
	if err != nil {
		writeServiceError(w, err, "list tenants")
		return
	}

	resp := make([]tenantResponse, len(tenants))
	for i, t := range tenants {
		resp[i] = tenantToResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tenants": resp})
}

// UpdateSubscription handles PATCH /tenants/{tid}/subscription (SUPER_ADMIN only).
func (h *TenantHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req updateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	switch req.Subscription {
	case enum.SubscriptionTrialing, enum.SubscriptionActive, enum.SubscriptionExpired:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid subscription status"})
		return
	}

	tenant, err := h.store.UpdateTenant(r.Context(), tenantID, func(t *store.Tenant) error {
		t.Subscription.Status = req.Subscription
		return nil
	})
	if err != nil {
		writeServiceError(w, err, "update subscription")
		return
	}
	writeJSON(w, http.StatusOK, tenantToResponse(tenant))
}

// --- Helpers ---

func parseOptionalPercent(w http.ResponseWriter, s *string, field string) (*decimal.Decimal, bool) {
	if s == nil {
		return nil, true
	}
	d, err := decimal.NewFromString(*s)
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + field})
		return nil, false
	}
	return &d, true
}

func tenantToResponse(t *store.Tenant) tenantResponse {
	return tenantResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		Slug:                 t.Slug,
		Currency:             t.Currency,
		Timezone:             t.Timezone,
		TaxRatePercent:       t.TaxRatePercent.StringFixed(2),
		ServiceChargePercent: t.ServiceChargePercent.StringFixed(2),
		RoundingIncrement:    t.RoundingIncrement.String(),
		Subscription:         t.Subscription.Status,
		TrialEndsAt:          t.Subscription.TrialEndsAt,
		Permissions:          t.Permissions,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}
