package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/auth"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/pricing"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/store"
	"github.com/mesa-pos/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, actor service.Actor, req service.CreateOrderRequest) (*store.Order, error)
	GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*store.Order, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, filter store.OrderFilter) ([]*store.Order, error)
	UpdateOrderItemStatus(ctx context.Context, actor service.Actor, tenantID, orderID, itemID uuid.UUID, status string) (*store.Order, error)
	MarkOrderReady(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID) (*store.Order, error)
	ServeOrderItem(ctx context.Context, actor service.Actor, tenantID, orderID, itemID uuid.UUID) (*store.Order, error)
	ServeAll(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID) (*store.Order, error)
	CancelOrderItem(ctx context.Context, actor service.Actor, tenantID, orderID, itemID uuid.UUID) (*store.Order, error)
	CancelOrder(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID) (*store.Order, error)
	CloseOrder(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID) (*store.Order, error)
	UpdateOrderNote(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID, note string) (*store.Order, error)
	ApplyDiscount(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID, disc *store.Discount) (*store.Order, error)
	MarkComplimentary(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID) (*store.Order, error)
	AddPayment(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID, method string, amount decimal.Decimal, amountReceived *decimal.Decimal) (*store.Order, error)
	TotalsFor(ctx context.Context, tenantID uuid.UUID, o *store.Order) (pricing.Totals, error)
}

// Broadcaster pushes order events to the tenant's realtime room.
// Satisfied by *ws.Hub; nil disables broadcasting.
type Broadcaster interface {
	BroadcastToTenant(tenantID uuid.UUID, event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
	hub Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a tenant-scoped subrouter: /tenants/{tid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/items/{itemID}/status", h.UpdateItemStatus)
	r.Post("/{id}/items/{itemID}/serve", h.ServeItem)
	r.Delete("/{id}/items/{itemID}", h.CancelItem)
	r.Post("/{id}/ready", h.MarkReady)
	r.Post("/{id}/serve", h.ServeAll)
	r.Post("/{id}/close", h.Close)
	r.Delete("/{id}", h.Cancel)
	r.Patch("/{id}/note", h.UpdateNote)
	r.Patch("/{id}/discount", h.ApplyDiscount)
	r.Post("/{id}/complimentary", h.MarkComplimentary)
	r.Post("/{id}/payments", h.AddPayment)
	r.Get("/{id}/payments", h.ListPayments)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableID string                   `json:"table_id"`
	Note    string                   `json:"note"`
	Items   []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuItemID  string   `json:"menu_item_id"`
	VariantID   string   `json:"variant_id"`
	ModifierIDs []string `json:"modifier_ids"`
	Quantity    int32    `json:"quantity"`
	Note        string   `json:"note"`
}

type updateItemStatusRequest struct {
	Status string `json:"status"`
}

type updateNoteRequest struct {
	Note string `json:"note"`
}

type discountRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type addPaymentRequest struct {
	Method         string  `json:"method"`
	Amount         string  `json:"amount"`
	AmountReceived *string `json:"amount_received"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	TenantID      uuid.UUID           `json:"tenant_id"`
	TableID       uuid.UUID           `json:"table_id"`
	OrderNumber   string              `json:"order_number"`
	Status        string              `json:"status"`
	Note          string              `json:"note,omitempty"`
	WaiterID      uuid.UUID           `json:"waiter_id"`
	WaiterName    string              `json:"waiter_name"`
	Discount      *discountResponse   `json:"discount,omitempty"`
	Complimentary bool                `json:"complimentary"`
	Items         []orderItemResponse `json:"items"`
	Payments      []paymentResponse   `json:"payments"`
	Totals        totalsResponse      `json:"totals"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	ClosedAt      *time.Time          `json:"closed_at,omitempty"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	Note       string    `json:"note,omitempty"`
	Status     string    `json:"status"`
	Station    string    `json:"station,omitempty"`
}

type paymentResponse struct {
	ID             uuid.UUID `json:"id"`
	Method         string    `json:"method"`
	Amount         string    `json:"amount"`
	AmountReceived *string   `json:"amount_received,omitempty"`
	ChangeAmount   *string   `json:"change_amount,omitempty"`
	RecordedBy     uuid.UUID `json:"recorded_by"`
	RecordedAt     time.Time `json:"recorded_at"`
}

type discountResponse struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type totalsResponse struct {
	Subtotal            string `json:"subtotal"`
	DiscountAmount      string `json:"discount_amount"`
	DiscountedSubtotal  string `json:"discounted_subtotal"`
	ServiceChargeAmount string `json:"service_charge_amount"`
	TaxAmount           string `json:"tax_amount"`
	TotalBeforeRounding string `json:"total_before_rounding"`
	RoundingAdjustment  string `json:"rounding_adjustment"`
	Total               string `json:"total"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Create handles POST /tenants/{tid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatItemError(i, "invalid menu_item_id")})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatItemError(i, "quantity must be > 0")})
			return
		}
		var variantID uuid.UUID
		if item.VariantID != "" {
			variantID, err = uuid.Parse(item.VariantID)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatItemError(i, "invalid variant_id")})
				return
			}
		}
		modifierIDs := make([]uuid.UUID, len(item.ModifierIDs))
		for j, mid := range item.ModifierIDs {
			modifierIDs[j], err = uuid.Parse(mid)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatItemError(i, "invalid modifier_id")})
				return
			}
		}
		svcItems[i] = service.CreateOrderItemRequest{
			MenuItemID:  menuItemID,
			VariantID:   variantID,
			ModifierIDs: modifierIDs,
			Quantity:    item.Quantity,
			Note:        item.Note,
		}
	}

	order, err := h.svc.CreateOrder(r.Context(), actorFromClaims(claims), service.CreateOrderRequest{
		TenantID: tenantID,
		TableID:  tableID,
		Note:     req.Note,
		Items:    svcItems,
	})
	if err != nil {
		writeServiceError(w, err, "create order")
		return
	}

	resp := h.orderToResponse(r.Context(), tenantID, order)
	h.broadcast(tenantID, ws.EventOrderCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /tenants/{tid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	filter := store.OrderFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	if s := r.URL.Query().Get("table_id"); s != "" {
		tableID, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
			return
		}
		filter.TableID = tableID
	}

	orders, err := h.svc.ListOrders(r.Context(), tenantID, filter)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = h.orderToResponse(r.Context(), tenantID, o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /tenants/{tid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.GetOrder(r.Context(), tenantID, orderID)
	if err != nil {
		writeServiceError(w, err, "get order")
		return
	}
	writeJSON(w, http.StatusOK, h.orderToResponse(r.Context(), tenantID, order))
}

// UpdateItemStatus handles PATCH /tenants/{tid}/orders/{id}/items/{itemID}/status.
func (h *OrderHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, itemID, ok := orderAndItemIDs(w, r)
	if !ok {
		return
	}

	var req updateItemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.UpdateOrderItemStatus(r.Context(), actorFromClaims(claims), tenantID, orderID, itemID, req.Status)
	if err != nil {
		writeServiceError(w, err, "update item status")
		return
	}

	resp := h.orderToResponse(r.Context(), tenantID, order)
	h.broadcast(tenantID, ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// ServeItem handles POST /tenants/{tid}/orders/{id}/items/{itemID}/serve.
func (h *OrderHandler) ServeItem(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, itemID, ok := orderAndItemIDs(w, r)
	if !ok {
		return
	}

	order, err := h.svc.ServeOrderItem(r.Context(), actorFromClaims(claims), tenantID, orderID, itemID)
	if err != nil {
		writeServiceError(w, err, "serve item")
		return
	}

	resp := h.orderToResponse(r.Context(), tenantID, order)
	h.broadcast(tenantID, ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// CancelItem handles DELETE /tenants/{tid}/orders/{id}/items/{itemID}.
func (h *OrderHandler) CancelItem(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, itemID, ok := orderAndItemIDs(w, r)
	if !ok {
		return
	}

	order, err := h.svc.CancelOrderItem(r.Context(), actorFromClaims(claims), tenantID, orderID, itemID)
	if err != nil {
		writeServiceError(w, err, "cancel item")
		return
	}

	resp := h.orderToResponse(r.Context(), tenantID, order)
	h.broadcast(tenantID, ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// MarkReady handles POST /tenants/{tid}/orders/{id}/ready.
func (h *OrderHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "mark ready", h.svc.MarkOrderReady, ws.EventOrderUpdated)
}

// ServeAll handles POST /tenants/{tid}/orders/{id}/serve.
func (h *OrderHandler) ServeAll(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "serve all", h.svc.ServeAll, ws.EventOrderUpdated)
}

// Close handles POST /tenants/{tid}/orders/{id}/close.
func (h *OrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "close order", h.svc.CloseOrder, ws.EventOrderClosed)
}

// Cancel handles DELETE /tenants/{tid}/orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "cancel order", h.svc.CancelOrder, ws.EventOrderUpdated)
}

// MarkComplimentary handles POST /tenants/{tid}/orders/{id}/complimentary.
func (h *OrderHandler) MarkComplimentary(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "mark complimentary", h.svc.MarkComplimentary, ws.EventOrderUpdated)
}

// UpdateNote handles PATCH /tenants/{tid}/orders/{id}/note.
func (h *OrderHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.UpdateOrderNote(r.Context(), actorFromClaims(claims), tenantID, orderID, req.Note)
	if err != nil {
		writeServiceError(w, err, "update note")
		return
	}
	writeJSON(w, http.StatusOK, h.orderToResponse(r.Context(), tenantID, order))
}

// ApplyDiscount handles PATCH /tenants/{tid}/orders/{id}/discount.
// A null body value clears the discount.
func (h *OrderHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req *discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var disc *store.Discount
	if req != nil {
		value, err := decimal.NewFromString(req.Value)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount value"})
			return
		}
		disc = &store.Discount{Type: req.Type, Value: value}
	}

	order, err := h.svc.ApplyDiscount(r.Context(), actorFromClaims(claims), tenantID, orderID, disc)
	if err != nil {
		writeServiceError(w, err, "apply discount")
		return
	}

	resp := h.orderToResponse(r.Context(), tenantID, order)
	h.broadcast(tenantID, ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// AddPayment handles POST /tenants/{tid}/orders/{id}/payments.
func (h *OrderHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}
	var amountReceived *decimal.Decimal
	if req.AmountReceived != nil {
		v, err := decimal.NewFromString(*req.AmountReceived)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount_received"})
			return
		}
		amountReceived = &v
	}

	order, err := h.svc.AddPayment(r.Context(), actorFromClaims(claims), tenantID, orderID, req.Method, amount, amountReceived)
	if err != nil {
		writeServiceError(w, err, "add payment")
		return
	}

	resp := h.orderToResponse(r.Context(), tenantID, order)
	h.broadcast(tenantID, ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// ListPayments handles GET /tenants/{tid}/orders/{id}/payments.
func (h *OrderHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.GetOrder(r.Context(), tenantID, orderID)
	if err != nil {
		writeServiceError(w, err, "list payments")
		return
	}

	payments := make([]paymentResponse, len(order.Payments))
	for i, p := range order.Payments {
		payments[i] = paymentToResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}

// --- Helpers ---

type transitionFn func(ctx context.Context, actor service.Actor, tenantID, orderID uuid.UUID) (*store.Order, error)

// simpleTransition covers the body-less POST/DELETE order transitions that
// only need an order id.
func (h *OrderHandler) simpleTransition(w http.ResponseWriter, r *http.Request, op string, fn transitionFn, eventType string) {
	tenantID, claims, ok := tenantAndClaims(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := fn(r.Context(), actorFromClaims(claims), tenantID, orderID)
	if err != nil {
		writeServiceError(w, err, op)
		return
	}

	resp := h.orderToResponse(r.Context(), tenantID, order)
	h.broadcast(tenantID, eventType, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) broadcast(tenantID uuid.UUID, eventType string, payload interface{}) {
	if h.hub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal broadcast payload: %v", err)
		return
	}
	h.hub.BroadcastToTenant(tenantID, ws.Event{Type: eventType, Payload: data})
}

func (h *OrderHandler) orderToResponse(ctx context.Context, tenantID uuid.UUID, o *store.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		TenantID:      o.TenantID,
		TableID:       o.TableID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		Note:          o.Note,
		WaiterID:      o.WaiterID,
		WaiterName:    o.WaiterName,
		Complimentary: o.Complimentary,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		ClosedAt:      o.ClosedAt,
	}
	if o.Discount != nil {
		resp.Discount = &discountResponse{Type: o.Discount.Type, Value: o.Discount.Value.String()}
	}

	resp.Items = make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		resp.Items[i] = orderItemResponse{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			Note:       it.Note,
			Status:     it.Status,
			Station:    it.Station,
		}
	}

	resp.Payments = make([]paymentResponse, len(o.Payments))
	for i, p := range o.Payments {
		resp.Payments[i] = paymentToResponse(p)
	}

	totals, err := h.svc.TotalsFor(ctx, tenantID, o)
	if err != nil {
		log.Printf("ERROR: compute totals for order %s: %v", o.ID, err)
	}
	resp.Totals = totalsResponse{
		Subtotal:            totals.Subtotal.StringFixed(2),
		DiscountAmount:      totals.DiscountAmount.StringFixed(2),
		DiscountedSubtotal:  totals.DiscountedSubtotal.StringFixed(2),
		ServiceChargeAmount: totals.ServiceChargeAmount.StringFixed(2),
		TaxAmount:           totals.TaxAmount.StringFixed(2),
		TotalBeforeRounding: totals.TotalBeforeRounding.StringFixed(2),
		RoundingAdjustment:  totals.RoundingAdjustment.StringFixed(2),
		Total:               totals.Total.StringFixed(2),
	}
	return resp
}

func paymentToResponse(p store.Payment) paymentResponse {
	resp := paymentResponse{
		ID:         p.ID,
		Method:     p.Method,
		Amount:     p.Amount.StringFixed(2),
		RecordedBy: p.RecordedBy,
		RecordedAt: p.RecordedAt,
	}
	if p.AmountReceived != nil {
		s := p.AmountReceived.StringFixed(2)
		resp.AmountReceived = &s
	}
	if p.ChangeAmount != nil {
		s := p.ChangeAmount.StringFixed(2)
		resp.ChangeAmount = &s
	}
	return resp
}

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

func tenantAndClaims(w http.ResponseWriter, r *http.Request) (uuid.UUID, *auth.Claims, bool) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return uuid.Nil, nil, false
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return uuid.Nil, nil, false
	}
	return tenantID, claims, true
}

func orderAndItemIDs(w http.ResponseWriter, r *http.Request) (orderID, itemID uuid.UUID, ok bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err = uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, itemID, true
}

func actorFromClaims(claims *auth.Claims) service.Actor {
	return service.Actor{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}
}

// writeServiceError maps the service's sentinel errors onto HTTP status
// codes. Denials (403) and illegal transitions (409) stay distinct so
// clients can tell "not allowed for you" from "not possible right now".
func writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrTenantNotFound),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTableHasActiveOrder),
		errors.Is(err, service.ErrPaymentExceedsTotal):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSubscriptionExpired):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrTableNameRequired),
		errors.Is(err, service.ErrMenuItemUnavailable),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrModifierNotFound):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
