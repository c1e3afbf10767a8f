package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/enum"
)

// Discount is either a percentage of the subtotal or a fixed amount.
type Discount struct {
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Subscription tracks a tenant's billing state.
type Subscription struct {
	Status      string     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
}

// Tenant is one restaurant account; the unit of data isolation.
// Permissions holds per-role capability overrides, keyed role -> capability
// -> allowed. Keys not present fall back to the role defaults in the
// permission package.
type Tenant struct {
	ID                   uuid.UUID
	Name                 string
	Slug                 string
	Currency             string
	Timezone             string
	TaxRatePercent       decimal.Decimal
	ServiceChargePercent decimal.Decimal
	RoundingIncrement    decimal.Decimal
	Subscription         Subscription
	Permissions          map[string]map[string]bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// User is a staff account within a tenant.
type User struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Name           string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

// Table is a physical table. Status is derived from order activity and
// only settable manually when no open order references the table.
// Generation is bumped on every write; deferred reopen timers carry the
// generation they were scheduled against so a stale timer cannot revive
// a table that was mutated in the meantime.
type Table struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Status       string
	CustomerName string
	Note         string
	Generation   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Variant is a sellable variation of a menu item with its own price.
type Variant struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Modifier is an add-on whose price delta is added to the unit price.
type Modifier struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

// MenuItem is read-only to the order core; price is the authoritative
// per-unit price unless a variant is selected.
type MenuItem struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Price       decimal.Decimal
	IsAvailable bool
	Variants    []Variant
	Modifiers   []Modifier
	Station     string
}

// OrderItem is one line within an order. Name, UnitPrice and Station are
// snapshots taken when the line was added, so bills and reports stay stable
// under later menu edits. SERVED and CANCELED are terminal.
type OrderItem struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Quantity   int32
	UnitPrice  decimal.Decimal
	Note       string
	Status     string
	Station    string
}

// Payment is a settled amount against an order.
type Payment struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Method         string
	Amount         decimal.Decimal
	AmountReceived *decimal.Decimal
	ChangeAmount   *decimal.Decimal
	RecordedBy     uuid.UUID
	RecordedAt     time.Time
}

// Order is the aggregate tracking everything sent to the kitchen for one
// table visit until closure. WaiterID/WaiterName are a snapshot taken at
// creation time, deliberately not a foreign-key reference.
type Order struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TableID       uuid.UUID
	OrderNumber   string
	Status        string
	Items         []OrderItem
	Payments      []Payment
	Note          string
	WaiterID      uuid.UUID
	WaiterName    string
	Discount      *Discount
	Complimentary bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
}

// Open reports whether the order still occupies its table.
func (o *Order) Open() bool {
	return o.Status != enum.OrderStatusClosed && o.Status != enum.OrderStatusCanceled
}

// ActiveSubtotal sums quantity x unit price over non-canceled items.
func (o *Order) ActiveSubtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, it := range o.Items {
		if it.Status == enum.ItemStatusCanceled {
			continue
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	return subtotal
}

// PaidTotal sums all recorded payments.
func (o *Order) PaidTotal() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range o.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Item returns a pointer into Items for the given id, or nil.
func (o *Order) Item(itemID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the order so callers can hand copies across
// goroutine boundaries without sharing item slices.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.Payments = make([]Payment, len(o.Payments))
	for i, p := range o.Payments {
		c.Payments[i] = p
		if p.AmountReceived != nil {
			v := *p.AmountReceived
			c.Payments[i].AmountReceived = &v
		}
		if p.ChangeAmount != nil {
			v := *p.ChangeAmount
			c.Payments[i].ChangeAmount = &v
		}
	}
	if o.Discount != nil {
		d := *o.Discount
		c.Discount = &d
	}
	if o.ClosedAt != nil {
		t := *o.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	return &c
}

// Clone returns a deep copy of the tenant, including permission overrides.
func (t *Tenant) Clone() *Tenant {
	c := *t
	if t.Subscription.TrialEndsAt != nil {
		v := *t.Subscription.TrialEndsAt
		c.Subscription.TrialEndsAt = &v
	}
	if t.Permissions != nil {
		c.Permissions = make(map[string]map[string]bool, len(t.Permissions))
		for role, keys := range t.Permissions {
			m := make(map[string]bool, len(keys))
			for k, v := range keys {
				m[k] = v
			}
			c.Permissions[role] = m
		}
	}
	return &c
}
