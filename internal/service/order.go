package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/permission"
	"github.com/mesa-pos/api/internal/pricing"
	"github.com/mesa-pos/api/internal/store"
)

// Errors returned by the order service. Handlers map these onto HTTP status
// codes with errors.Is; permission denials and illegal transitions are kept
// distinct so the UI can tell "not allowed" from "action unavailable".
var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrItemNotFound        = errors.New("order item not found")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrVariantNotFound     = errors.New("variant not found")
	ErrModifierNotFound    = errors.New("modifier not found")

	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrSubscriptionExpired = errors.New("tenant subscription has expired")

	ErrEmptyItems          = errors.New("items are required")
	ErrInvalidQuantity     = errors.New("quantity must be >= 1")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidDiscount     = errors.New("invalid discount")
	ErrInvalidPayment      = errors.New("invalid payment")
	ErrPaymentExceedsTotal = errors.New("payment exceeds remaining balance")
)

// Actor identifies the authenticated staff member performing an operation.
// The auth layer supplies it; the core trusts it without re-validation.
type Actor struct {
	UserID uuid.UUID
	Name   string
	Role   string
}

// OrderService is the single authority mutating order and order-item state.
// All mutations run as atomic read-modify-writes through the store, so
// replaying the same transition is a harmless no-op and two rapid identical
// clicks cannot double-apply.
type OrderService struct {
	store  store.Store
	tables *TableService
}

// NewOrderService creates a new OrderService. The table service keeps
// Table.status in sync with order activity and is invoked only after the
// order mutation has been persisted.
func NewOrderService(st store.Store, tables *TableService) *OrderService {
	return &OrderService{store: st, tables: tables}
}

// CreateOrderRequest is the validated input for creating an order or
// appending items to the table's open order.
type CreateOrderRequest struct {
	TenantID uuid.UUID
	TableID  uuid.UUID
	Note     string
	Items    []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line to add.
type CreateOrderItemRequest struct {
	MenuItemID  uuid.UUID
	VariantID   uuid.UUID
	ModifierIDs []uuid.UUID
	Quantity    int32
	Note        string
}

// CreateOrder appends the items to the table's open order if one exists,
// otherwise creates a new order with the waiter snapshot and occupies the
// table. The waiter's name is denormalized onto the order so historical
// reports stay stable if the user record changes later.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (*store.Order, error) {
	tenant, err := s.tenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if subscriptionExpired(tenant, time.Now()) {
		return nil, ErrSubscriptionExpired
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	if _, err := s.store.GetTable(ctx, req.TenantID, req.TableID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	newItems, err := s.resolveItems(ctx, req.TenantID, req.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	// Append to the existing open order rather than creating a second one
	// for the same table.
	existing, err := s.store.GetOpenOrderByTable(ctx, req.TenantID, req.TableID)
	if err == nil {
		return s.appendItems(ctx, req.TenantID, existing.ID, newItems, req.Note, now)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get open order: %w", err)
	}

	num, err := s.store.NextOrderNumber(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}

	order := &store.Order{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		TableID:     req.TableID,
		OrderNumber: fmt.Sprintf("ORD-%04d", num),
		Status:      enum.OrderStatusNew,
		Items:       newItems,
		Note:        req.Note,
		WaiterID:    actor.UserID,
		WaiterName:  actor.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrOpenOrderExists) {
			// Lost the race against a concurrent create on the same table;
			// fold these items into the winner instead.
			existing, err := s.store.GetOpenOrderByTable(ctx, req.TenantID, req.TableID)
			if err != nil {
				return nil, fmt.Errorf("get open order: %w", err)
			}
			return s.appendItems(ctx, req.TenantID, existing.ID, newItems, req.Note, now)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Table flips only after the order mutation succeeded.
	if err := s.tables.markOccupied(ctx, req.TenantID, req.TableID); err != nil {
		return nil, fmt.Errorf("occupy table: %w", err)
	}
	return order, nil
}

// appendItems adds resolved items to an already open order.
func (s *OrderService) appendItems(ctx context.Context, tenantID, orderID uuid.UUID, newItems []store.OrderItem, note string, now time.Time) (*store.Order, error) {
	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		o.Items = append(o.Items, newItems...)
		if note != "" {
			o.Note = note
		}
		recomputeOrderStatus(o)
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return updated, nil
}

// UpdateOrderItemStatus applies a single item transition and recomputes the
// derived order status. Targeting a terminal item is a no-op, not an error.
func (s *OrderService) UpdateOrderItemStatus(ctx context.Context, actor Actor, tenantID, orderID, itemID uuid.UUID, newStatus string) (*store.Order, error) {
	key, err := keyForItemStatus(newStatus)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(tenant, actor.Role, key) {
		return nil, ErrPermissionDenied
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		if !o.Open() {
			return ErrInvalidTransition
		}
		it := o.Item(itemID)
		if it == nil {
			return ErrItemNotFound
		}
		changed, err := applyItemTransition(it, newStatus)
		if err != nil {
			return err
		}
		if changed {
			recomputeOrderStatus(o)
			o.UpdatedAt = time.Now()
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return updated, nil
}

// MarkOrderReady is the kitchen's rush shortcut: every NEW or
// IN_PREPARATION item jumps to READY and the order itself goes READY.
func (s *OrderService) MarkOrderReady(ctx context.Context, actor Actor, tenantID, orderID uuid.UUID) (*store.Order, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(tenant, actor.Role, permission.KeyKitchenMarkAllReady) {
		return nil, ErrPermissionDenied
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		if !o.Open() {
			return ErrInvalidTransition
		}
		for i := range o.Items {
			switch o.Items[i].Status {
			case enum.ItemStatusNew, enum.ItemStatusInPreparation:
				o.Items[i].Status = enum.ItemStatusReady
			}
		}
		o.Status = enum.OrderStatusReady
		recomputeOrderStatus(o)
		o.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return updated, nil
}

// ServeOrderItem marks one item SERVED.
func (s *OrderService) ServeOrderItem(ctx context.Context, actor Actor, tenantID, orderID, itemID uuid.UUID) (*store.Order, error) {
	return s.UpdateOrderItemStatus(ctx, actor, tenantID, orderID, itemID, enum.ItemStatusServed)
}

// ServeAll marks every READY item SERVED.
func (s *OrderService) ServeAll(ctx context.Context, actor Actor, tenantID, orderID uuid.UUID) (*store.Order, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(tenant, actor.Role, permission.KeyItemServe) {
		return nil, ErrPermissionDenied
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		if !o.Open() {
			return ErrInvalidTransition
		}
		changed := false
		for i := range o.Items {
			if o.Items[i].Status == enum.ItemStatusReady {
				o.Items[i].Status = enum.ItemStatusServed
				changed = true
			}
		}
		if changed {
			recomputeOrderStatus(o)
			o.UpdatedAt = time.Now()
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return updated, nil
}

// CancelOrderItem cancels a single line that the kitchen has not finished.
func (s *OrderService) CancelOrderItem(ctx context.Context, actor Actor, tenantID, orderID, itemID uuid.UUID) (*store.Order, error) {
	return s.UpdateOrderItemStatus(ctx, actor, tenantID, orderID, itemID, enum.ItemStatusCanceled)
}

// CancelOrder voids the whole order: every unfinished item is canceled, the
// order goes CANCELED and the table is released. Rejected once anything has
// been served.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, tenantID, orderID uuid.UUID) (*store.Order, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(tenant, actor.Role, permission.KeyItemCancel) {
		return nil, ErrPermissionDenied
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		if !o.Open() {
			return ErrInvalidTransition
		}
		for _, it := range o.Items {
			if it.Status == enum.ItemStatusServed {
				return ErrInvalidTransition
			}
		}
		for i := range o.Items {
			o.Items[i].Status = enum.ItemStatusCanceled
		}
		o.Status = enum.OrderStatusCanceled
		o.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}

	if err := s.tables.release(ctx, tenantID, updated.TableID); err != nil {
		return nil, fmt.Errorf("release table: %w", err)
	}
	return updated, nil
}

// CloseOrder settles the order. Only legal when the order is SERVED; a
// premature close is rejected and the table is left untouched.
func (s *OrderService) CloseOrder(ctx context.Context, actor Actor, tenantID, orderID uuid.UUID) (*store.Order, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(tenant, actor.Role, permission.KeyOrderClose) {
		return nil, ErrPermissionDenied
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		if o.Status == enum.OrderStatusClosed {
			// Double-submit of the close button.
			return nil
		}
		if o.Status != enum.OrderStatusServed {
			return ErrInvalidTransition
		}
		now := time.Now()
		o.Status = enum.OrderStatusClosed
		o.ClosedAt = &now
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}

	if err := s.tables.release(ctx, tenantID, updated.TableID); err != nil {
		return nil, fmt.Errorf("release table: %w", err)
	}
	return updated, nil
}

// UpdateOrderNote replaces the order's free-text note. Status is unaffected.
func (s *OrderService) UpdateOrderNote(ctx context.Context, actor Actor, tenantID, orderID uuid.UUID, note string) (*store.Order, error) {
	if _, err := s.tenant(ctx, tenantID); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		o.Note = note
		o.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return updated, nil
}

// ApplyDiscount sets or clears the order-level discount.
func (s *OrderService) ApplyDiscount(ctx context.Context, actor Actor, tenantID, orderID uuid.UUID, disc *store.Discount) (*store.Order, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(tenant, actor.Role, permission.KeyDiscount) {
		return nil, ErrPermissionDenied
	}
	if disc != nil {
		switch disc.Type {
		case enum.DiscountTypePercent:
			if disc.Value.IsNegative() || disc.Value.GreaterThan(decimal.NewFromInt(100)) {
				return nil, ErrInvalidDiscount
			}
		case enum.DiscountTypeAmount:
			if disc.Value.IsNegative() {
				return nil, ErrInvalidDiscount
			}
		default:
			return nil, ErrInvalidDiscount
		}
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		if !o.Open() {
			return ErrInvalidTransition
		}
		o.Discount = disc
		if disc == nil {
			o.Complimentary = false
		}
		o.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return updated, nil
}

// MarkComplimentary comps the whole order via a 100% discount.
func (s *OrderService) MarkComplimentary(ctx context.Context, actor Actor, tenantID, orderID uuid.UUID) (*store.Order, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(tenant, actor.Role, permission.KeyComplimentary) {
		return nil, ErrPermissionDenied
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		if !o.Open() {
			return ErrInvalidTransition
		}
		o.Complimentary = true
		o.Discount = &store.Discount{Type: enum.DiscountTypePercent, Value: decimal.NewFromInt(100)}
		o.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return updated, nil
}

// AddPayment records a settled amount against the order. The sum of
// payments can never exceed the order total; CASH payments compute change.
func (s *OrderService) AddPayment(ctx context.Context, actor Actor, tenantID, orderID uuid.UUID, method string, amount decimal.Decimal, amountReceived *decimal.Decimal) (*store.Order, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(tenant, actor.Role, permission.KeyPayments) {
		return nil, ErrPermissionDenied
	}
	switch method {
	case enum.PaymentMethodCash, enum.PaymentMethodCard, enum.PaymentMethodTransfer:
	default:
		return nil, ErrInvalidPayment
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPayment
	}

	updated, err := s.store.UpdateOrder(ctx, tenantID, orderID, func(o *store.Order) error {
		if !o.Open() {
			return ErrInvalidTransition
		}

		totals := s.Totals(tenant, o)
		remaining := totals.Total.Sub(o.PaidTotal())
		if amount.GreaterThan(remaining) {
			return ErrPaymentExceedsTotal
		}

		p := store.Payment{
			ID:         uuid.New(),
			OrderID:    o.ID,
			Method:     method,
			Amount:     amount,
			RecordedBy: actor.UserID,
			RecordedAt: time.Now(),
		}
		if method == enum.PaymentMethodCash {
			if amountReceived == nil || amountReceived.LessThan(amount) {
				return ErrInvalidPayment
			}
			received := *amountReceived
			change := received.Sub(amount)
			p.AmountReceived = &received
			p.ChangeAmount = &change
		}
		o.Payments = append(o.Payments, p)
		o.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return updated, nil
}

// GetOrder returns the order, or ErrOrderNotFound for a stale id.
func (s *OrderService) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*store.Order, error) {
	o, err := s.store.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, mapStoreErr(err, ErrOrderNotFound)
	}
	return o, nil
}

// ListOrders returns orders for the tenant, newest first.
func (s *OrderService) ListOrders(ctx context.Context, tenantID uuid.UUID, filter store.OrderFilter) ([]*store.Order, error) {
	return s.store.ListOrders(ctx, tenantID, filter)
}

// Totals computes the bill for an order against the tenant's billing
// configuration. Pure; safe to call on every read.
func (s *OrderService) Totals(tenant *store.Tenant, o *store.Order) pricing.Totals {
	var disc *pricing.Discount
	if o.Discount != nil {
		disc = &pricing.Discount{Type: o.Discount.Type, Value: o.Discount.Value}
	}
	return pricing.Compute(o.ActiveSubtotal(), disc, pricing.Config{
		TaxRatePercent:       tenant.TaxRatePercent,
		ServiceChargePercent: tenant.ServiceChargePercent,
		RoundingIncrement:    tenant.RoundingIncrement,
	})
}

// TotalsFor is Totals with a tenant fetch, for handlers that only hold ids.
func (s *OrderService) TotalsFor(ctx context.Context, tenantID uuid.UUID, o *store.Order) (pricing.Totals, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return pricing.Totals{}, err
	}
	return s.Totals(tenant, o), nil
}

// ── State machine internals ──

// itemRank orders the forward progress chain NEW -> IN_PREPARATION ->
// READY -> SERVED. Forward jumps are allowed, moving backwards is not.
var itemRank = map[string]int{
	enum.ItemStatusNew:           0,
	enum.ItemStatusInPreparation: 1,
	enum.ItemStatusReady:         2,
	enum.ItemStatusServed:        3,
}

func itemTerminal(status string) bool {
	return status == enum.ItemStatusServed || status == enum.ItemStatusCanceled
}

// applyItemTransition mutates the item in place. Terminal items and repeats
// of the current status are left untouched (no-op); backward moves and
// canceling a finished line are rejected.
func applyItemTransition(it *store.OrderItem, next string) (changed bool, err error) {
	if itemTerminal(it.Status) {
		return false, nil
	}
	if next == it.Status {
		return false, nil
	}
	if next == enum.ItemStatusCanceled {
		switch it.Status {
		case enum.ItemStatusNew, enum.ItemStatusInPreparation:
			it.Status = enum.ItemStatusCanceled
			return true, nil
		}
		return false, ErrInvalidTransition
	}
	nextRank, ok := itemRank[next]
	if !ok {
		return false, ErrInvalidStatus
	}
	if nextRank < itemRank[it.Status] {
		return false, ErrInvalidTransition
	}
	it.Status = next
	return true, nil
}

// recomputeOrderStatus derives the order status from its items: SERVED when
// every item is served or canceled, READY when every item is at least ready,
// otherwise whatever the last explicit transition set. Canceled items never
// block either bulk condition, so a fully canceled order is vacuously
// SERVED. When neither condition holds anymore (items appended after the
// order went READY or SERVED) the status drops back to IN_PREPARATION so
// the kitchen sees outstanding work. CLOSED and CANCELED orders are never
// touched here.
func recomputeOrderStatus(o *store.Order) {
	if !o.Open() {
		return
	}
	allServed := true
	allReady := true
	for _, it := range o.Items {
		switch it.Status {
		case enum.ItemStatusCanceled:
		case enum.ItemStatusServed:
		case enum.ItemStatusReady:
			allServed = false
		default:
			allServed = false
			allReady = false
		}
	}
	switch {
	case allServed:
		o.Status = enum.OrderStatusServed
	case allReady:
		o.Status = enum.OrderStatusReady
	case o.Status == enum.OrderStatusServed || o.Status == enum.OrderStatusReady:
		o.Status = enum.OrderStatusInPreparation
	}
}

// keyForItemStatus picks the capability gating a target item status:
// kitchen progress, serving, and canceling are separately configurable.
func keyForItemStatus(status string) (permission.Key, error) {
	switch status {
	case enum.ItemStatusInPreparation, enum.ItemStatusReady:
		return permission.KeyKitchenItemStatus, nil
	case enum.ItemStatusServed:
		return permission.KeyItemServe, nil
	case enum.ItemStatusCanceled:
		return permission.KeyItemCancel, nil
	}
	return "", ErrInvalidStatus
}

// ── Helpers ──

func (s *OrderService) tenant(ctx context.Context, tenantID uuid.UUID) (*store.Tenant, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, mapStoreErr(err, ErrTenantNotFound)
	}
	return tenant, nil
}

func (s *OrderService) resolveItems(ctx context.Context, tenantID uuid.UUID, reqs []CreateOrderItemRequest) ([]store.OrderItem, error) {
	items := make([]store.OrderItem, 0, len(reqs))
	for i, req := range reqs {
		if req.Quantity < 1 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		mi, err := s.store.GetMenuItem(ctx, tenantID, req.MenuItemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if !mi.IsAvailable {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemUnavailable)
		}

		// unit price = variant price if selected, else base price,
		// plus selected modifier deltas
		unitPrice := mi.Price
		name := mi.Name
		if req.VariantID != uuid.Nil {
			variant, ok := findVariant(mi, req.VariantID)
			if !ok {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrVariantNotFound)
			}
			unitPrice = variant.Price
			name = mi.Name + " (" + variant.Name + ")"
		}
		for _, modID := range req.ModifierIDs {
			mod, ok := findModifier(mi, modID)
			if !ok {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrModifierNotFound)
			}
			unitPrice = unitPrice.Add(mod.PriceDelta)
		}

		items = append(items, store.OrderItem{
			ID:         uuid.New(),
			MenuItemID: mi.ID,
			Name:       name,
			Quantity:   req.Quantity,
			UnitPrice:  unitPrice,
			Note:       req.Note,
			Status:     enum.ItemStatusNew,
			Station:    mi.Station,
		})
	}
	return items, nil
}

func findVariant(mi *store.MenuItem, id uuid.UUID) (store.Variant, bool) {
	for _, v := range mi.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return store.Variant{}, false
}

func findModifier(mi *store.MenuItem, id uuid.UUID) (store.Modifier, bool) {
	for _, m := range mi.Modifiers {
		if m.ID == id {
			return m, true
		}
	}
	return store.Modifier{}, false
}

func subscriptionExpired(t *store.Tenant, now time.Time) bool {
	switch t.Subscription.Status {
	case enum.SubscriptionExpired:
		return true
	case enum.SubscriptionTrialing:
		return t.Subscription.TrialEndsAt != nil && now.After(*t.Subscription.TrialEndsAt)
	}
	return false
}

// mapStoreErr translates the store's ErrNotFound into the operation's
// specific sentinel while passing every other error (including sentinels
// raised inside an update closure) through unchanged.
func mapStoreErr(err, notFound error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return err
}
