package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by every store when the requested row does not
// exist within the tenant.
var ErrNotFound = errors.New("not found")

// ErrOpenOrderExists is returned by CreateOrder when the table already has
// a non-CLOSED, non-CANCELED order. It backs the one-open-order-per-table
// invariant at the storage layer, where concurrent creates are actually
// serialized.
var ErrOpenOrderExists = errors.New("table already has an open order")

// OrderStore persists the Order aggregate (items and payments included).
//
// UpdateOrder is the atomicity contract the order state machine relies on:
// the implementation loads the current aggregate, applies fn, and persists
// the result as one atomic read-modify-write. An error from fn aborts the
// write and is returned unchanged.
type OrderStore interface {
	// CreateOrder inserts a new order, or returns ErrOpenOrderExists when
	// the order is open and its table already has one.
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*Order, error)
	// GetOpenOrderByTable returns the single non-CLOSED, non-CANCELED order
	// for the table, or ErrNotFound.
	GetOpenOrderByTable(ctx context.Context, tenantID, tableID uuid.UUID) (*Order, error)
	UpdateOrder(ctx context.Context, tenantID, orderID uuid.UUID, fn func(*Order) error) (*Order, error)
	NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) ([]*Order, error)
	// ListClosedOrdersBetween returns CLOSED orders with closedAt inside
	// [start, end], both inclusive.
	ListClosedOrdersBetween(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*Order, error)
}

// OrderFilter narrows ListOrders. Zero values mean "no filter".
type OrderFilter struct {
	Status  string
	TableID uuid.UUID
	Limit   int
	Offset  int
}

// TableStore persists tables. UpdateTable carries the same atomic
// read-modify-write contract as UpdateOrder.
type TableStore interface {
	CreateTable(ctx context.Context, t *Table) error
	GetTable(ctx context.Context, tenantID, tableID uuid.UUID) (*Table, error)
	UpdateTable(ctx context.Context, tenantID, tableID uuid.UUID, fn func(*Table) error) (*Table, error)
	DeleteTable(ctx context.Context, tenantID, tableID uuid.UUID) error
	ListTables(ctx context.Context, tenantID uuid.UUID) ([]*Table, error)
}

// TenantStore persists tenant accounts and their settings.
type TenantStore interface {
	CreateTenant(ctx context.Context, t *Tenant) error
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*Tenant, error)
	UpdateTenant(ctx context.Context, tenantID uuid.UUID, fn func(*Tenant) error) (*Tenant, error)
	ListTenants(ctx context.Context) ([]*Tenant, error)
}

// MenuStore is the read-only menu catalog consumed by the order core.
type MenuStore interface {
	GetMenuItem(ctx context.Context, tenantID, menuItemID uuid.UUID) (*MenuItem, error)
	ListMenuItems(ctx context.Context, tenantID uuid.UUID) ([]*MenuItem, error)
}

// UserStore holds staff accounts; consumed by the login handler only.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error)
}

// Store is the full persistence surface the application is wired against.
type Store interface {
	OrderStore
	TableStore
	TenantStore
	MenuStore
	UserStore
}
