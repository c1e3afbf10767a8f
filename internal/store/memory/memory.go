// Package memory is an in-process Store implementation. It backs the unit
// tests and makes the per-aggregate atomicity contract explicit: every
// UpdateOrder/UpdateTable runs its mutation function under the store lock,
// so there is never a partial concurrent writer for one aggregate.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/store"
)

type Store struct {
	mu sync.RWMutex

	tenants      map[uuid.UUID]*store.Tenant
	users        map[uuid.UUID]*store.User
	tables       map[uuid.UUID]*store.Table
	menuItems    map[uuid.UUID]*store.MenuItem
	orders       map[uuid.UUID]*store.Order
	orderNumbers map[uuid.UUID]int
}

func New() *Store {
	return &Store{
		tenants:      make(map[uuid.UUID]*store.Tenant),
		users:        make(map[uuid.UUID]*store.User),
		tables:       make(map[uuid.UUID]*store.Table),
		menuItems:    make(map[uuid.UUID]*store.MenuItem),
		orders:       make(map[uuid.UUID]*store.Order),
		orderNumbers: make(map[uuid.UUID]int),
	}
}

var _ store.Store = (*Store)(nil)

// ── Orders ──

func (s *Store) CreateOrder(ctx context.Context, o *store.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Open() {
		for _, other := range s.orders {
			if other.TenantID == o.TenantID && other.TableID == o.TableID && other.Open() {
				return store.ErrOpenOrderExists
			}
		}
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *Store) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return o.Clone(), nil
}

func (s *Store) GetOpenOrderByTable(ctx context.Context, tenantID, tableID uuid.UUID) (*store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.TenantID == tenantID && o.TableID == tableID && o.Open() {
			return o.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateOrder(ctx context.Context, tenantID, orderID uuid.UUID, fn func(*store.Order) error) (*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	next := o.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.orders[orderID] = next
	return next.Clone(), nil
}

func (s *Store) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderNumbers[tenantID]++
	return s.orderNumbers[tenantID], nil
}

func (s *Store) ListOrders(ctx context.Context, tenantID uuid.UUID, filter store.OrderFilter) ([]*store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Order
	for _, o := range s.orders {
		if o.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.TableID != uuid.Nil && o.TableID != filter.TableID {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) ListClosedOrdersBetween(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Order
	for _, o := range s.orders {
		if o.TenantID != tenantID || o.Status != enum.OrderStatusClosed || o.ClosedAt == nil {
			continue
		}
		if o.ClosedAt.Before(start) || o.ClosedAt.After(end) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.Before(*out[j].ClosedAt) })
	return out, nil
}

// ── Tables ──

func (s *Store) CreateTable(ctx context.Context, t *store.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = t.Clone()
	return nil
}

func (s *Store) GetTable(ctx context.Context, tenantID, tableID uuid.UUID) (*store.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[tableID]
	if !ok || t.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Store) UpdateTable(ctx context.Context, tenantID, tableID uuid.UUID, fn func(*store.Table) error) (*store.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok || t.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	next := t.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.tables[tableID] = next
	return next.Clone(), nil
}

func (s *Store) DeleteTable(ctx context.Context, tenantID, tableID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok || t.TenantID != tenantID {
		return store.ErrNotFound
	}
	delete(s.tables, tableID)
	return nil
}

func (s *Store) ListTables(ctx context.Context, tenantID uuid.UUID) ([]*store.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Table
	for _, t := range s.tables {
		if t.TenantID == tenantID {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── Tenants ──

func (s *Store) CreateTenant(ctx context.Context, t *store.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t.Clone()
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID uuid.UUID) (*store.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Store) UpdateTenant(ctx context.Context, tenantID uuid.UUID, fn func(*store.Tenant) error) (*store.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, store.ErrNotFound
	}
	next := t.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.tenants[tenantID] = next
	return next.Clone(), nil
}

func (s *Store) ListTenants(ctx context.Context) ([]*store.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*store.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── Menu ──

// PutMenuItem inserts or replaces a catalog entry. The order core treats the
// menu as read-only; this exists for seeding and tests.
func (s *Store) PutMenuItem(ctx context.Context, m *store.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	c.Variants = append([]store.Variant(nil), m.Variants...)
	c.Modifiers = append([]store.Modifier(nil), m.Modifiers...)
	s.menuItems[m.ID] = &c
	return nil
}

func (s *Store) GetMenuItem(ctx context.Context, tenantID, menuItemID uuid.UUID) (*store.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menuItems[menuItemID]
	if !ok || m.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	c := *m
	c.Variants = append([]store.Variant(nil), m.Variants...)
	c.Modifiers = append([]store.Modifier(nil), m.Modifiers...)
	return &c, nil
}

func (s *Store) ListMenuItems(ctx context.Context, tenantID uuid.UUID) ([]*store.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.MenuItem
	for _, m := range s.menuItems {
		if m.TenantID != tenantID {
			continue
		}
		c := *m
		c.Variants = append([]store.Variant(nil), m.Variants...)
		c.Modifiers = append([]store.Modifier(nil), m.Modifiers...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── Users ──

func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}
