package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/store"
)

// MenuStore defines the store methods needed by menu handlers.
type MenuStore interface {
	ListMenuItems(ctx context.Context, tenantID uuid.UUID) ([]*store.MenuItem, error)
}

// MenuHandler serves the tenant's menu for order taking.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(st MenuStore) *MenuHandler {
	return &MenuHandler{store: st}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/menu
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type menuVariantResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price string    `json:"price"`
}

type menuModifierResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceDelta string    `json:"price_delta"`
}

type menuItemResponse struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	Price     string                 `json:"price"`
	Station   string                 `json:"station,omitempty"`
	Available bool                   `json:"available"`
	Variants  []menuVariantResponse  `json:"variants,omitempty"`
	Modifiers []menuModifierResponse `json:"modifiers,omitempty"`
}

// List handles GET /tenants/{tid}/menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}

	items, err := h.store.ListMenuItems(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err, "list menu items")
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = menuItemToResponse(item)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": resp})
}

func menuItemToResponse(item *store.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price.StringFixed(2),
		Station:   item.Station,
		Available: item.IsAvailable,
	}
	for _, v := range item.Variants {
		resp.Variants = append(resp.Variants, menuVariantResponse{ID: v.ID, Name: v.Name, Price: v.Price.StringFixed(2)})
	}
	for _, m := range item.Modifiers {
		resp.Modifiers = append(resp.Modifiers, menuModifierResponse{ID: m.ID, Name: m.Name, PriceDelta: m.PriceDelta.StringFixed(2)})
	}
	return resp
}
