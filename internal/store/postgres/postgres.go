// Package postgres implements the persistence surface on PostgreSQL via pgx.
//
// Order aggregates keep their items, payments and discount in JSONB columns:
// the order core always reads and writes whole aggregates, so row-per-item
// normalization would only add join fan-out without anyone querying items
// independently. Atomic read-modify-writes take a row lock with
// SELECT ... FOR UPDATE inside a transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/store"
)

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Orders ---

const orderColumns = `id, tenant_id, table_id, order_number, status, items, payments,
	note, waiter_id, waiter_name, discount, complimentary, created_at, updated_at, closed_at`

func (s *Store) CreateOrder(ctx context.Context, o *store.Order) error {
	items, payments, discount, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO orders (id, tenant_id, table_id, order_number, status, items, payments,
			note, waiter_id, waiter_name, discount, complimentary, created_at, updated_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.TenantID, o.TableID, o.OrderNumber, o.Status, items, payments,
		o.Note, o.WaiterID, o.WaiterName, discount, o.Complimentary, o.CreatedAt, o.UpdatedAt, o.ClosedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			pgErr.ConstraintName == "orders_one_open_per_table" {
			return store.ErrOpenOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*store.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE tenant_id = $1 AND id = $2`,
		tenantID, orderID)
	return scanOrder(row)
}

func (s *Store) GetOpenOrderByTable(ctx context.Context, tenantID, tableID uuid.UUID) (*store.Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE tenant_id = $1 AND table_id = $2 AND status NOT IN ('CLOSED', 'CANCELED')
		ORDER BY created_at DESC
		LIMIT 1`,
		tenantID, tableID)
	return scanOrder(row)
}

func (s *Store) UpdateOrder(ctx context.Context, tenantID, orderID uuid.UUID, fn func(*store.Order) error) (*store.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, orderID)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	if err := fn(o); err != nil {
		return nil, err
	}

	items, payments, discount, err := marshalOrderJSON(o)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE orders SET status = $3, items = $4, payments = $5, note = $6,
			discount = $7, complimentary = $8, updated_at = $9, closed_at = $10
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, orderID, o.Status, items, payments, o.Note,
		discount, o.Complimentary, o.UpdatedAt, o.ClosedAt)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

func (s *Store) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO order_counters (tenant_id, counter) VALUES ($1, 1)
		ON CONFLICT (tenant_id) DO UPDATE SET counter = order_counters.counter + 1
		RETURNING counter`,
		tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next order number: %w", err)
	}
	return n, nil
}

func (s *Store) ListOrders(ctx context.Context, tenantID uuid.UUID, filter store.OrderFilter) ([]*store.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.TableID != uuid.Nil {
		args = append(args, filter.TableID)
		query += fmt.Sprintf(" AND table_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) ListClosedOrdersBetween(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*store.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE tenant_id = $1 AND status = 'CLOSED' AND closed_at >= $2 AND closed_at <= $3
		ORDER BY closed_at`,
		tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list closed orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// --- Tables ---

const tableColumns = `id, tenant_id, name, status, customer_name, note, generation, created_at, updated_at`

func (s *Store) CreateTable(ctx context.Context, t *store.Table) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tables (id, tenant_id, name, status, customer_name, note, generation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.TenantID, t.Name, t.Status, t.CustomerName, t.Note, t.Generation, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert table: %w", err)
	}
	return nil
}

func (s *Store) GetTable(ctx context.Context, tenantID, tableID uuid.UUID) (*store.Table, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE tenant_id = $1 AND id = $2`,
		tenantID, tableID)
	return scanTable(row)
}

func (s *Store) UpdateTable(ctx context.Context, tenantID, tableID uuid.UUID, fn func(*store.Table) error) (*store.Table, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, tableID)
	t, err := scanTable(row)
	if err != nil {
		return nil, err
	}

	if err := fn(t); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE tables SET name = $3, status = $4, customer_name = $5, note = $6, generation = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, tableID, t.Name, t.Status, t.CustomerName, t.Note, t.Generation, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

func (s *Store) DeleteTable(ctx context.Context, tenantID, tableID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tables WHERE tenant_id = $1 AND id = $2`, tenantID, tableID)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListTables(ctx context.Context, tenantID uuid.UUID) ([]*store.Table, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tableColumns+` FROM tables WHERE tenant_id = $1 ORDER BY name`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []*store.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// --- Tenants ---

const tenantColumns = `id, name, slug, currency, timezone, tax_rate_percent::text,
	service_charge_percent::text, rounding_increment::text, subscription_status,
	trial_ends_at, permissions, created_at, updated_at`

func (s *Store) CreateTenant(ctx context.Context, t *store.Tenant) error {
	perms, err := json.Marshal(permsOrEmpty(t.Permissions))
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, slug, currency, timezone, tax_rate_percent,
			service_charge_percent, rounding_increment, subscription_status, trial_ends_at,
			permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9, $10, $11, $12, $13)`,
		t.ID, t.Name, t.Slug, t.Currency, t.Timezone, t.TaxRatePercent.String(),
		t.ServiceChargePercent.String(), t.RoundingIncrement.String(), t.Subscription.Status,
		t.Subscription.TrialEndsAt, perms, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID uuid.UUID) (*store.Tenant, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID)
	return scanTenant(row)
}

func (s *Store) UpdateTenant(ctx context.Context, tenantID uuid.UUID, fn func(*store.Tenant) error) (*store.Tenant, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, tenantID)
	t, err := scanTenant(row)
	if err != nil {
		return nil, err
	}

	if err := fn(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now()

	perms, err := json.Marshal(permsOrEmpty(t.Permissions))
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE tenants SET name = $2, currency = $3, timezone = $4, tax_rate_percent = $5::numeric,
			service_charge_percent = $6::numeric, rounding_increment = $7::numeric,
			subscription_status = $8, trial_ends_at = $9, permissions = $10, updated_at = $11
		WHERE id = $1`,
		tenantID, t.Name, t.Currency, t.Timezone, t.TaxRatePercent.String(),
		t.ServiceChargePercent.String(), t.RoundingIncrement.String(),
		t.Subscription.Status, t.Subscription.TrialEndsAt, perms, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]*store.Tenant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*store.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// --- Menu ---

const menuColumns = `id, tenant_id, category_id, name, price::text, is_available, variants, modifiers, station`

func (s *Store) GetMenuItem(ctx context.Context, tenantID, menuItemID uuid.UUID) (*store.MenuItem, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE tenant_id = $1 AND id = $2`,
		tenantID, menuItemID)
	return scanMenuItem(row)
}

func (s *Store) ListMenuItems(ctx context.Context, tenantID uuid.UUID) ([]*store.MenuItem, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE tenant_id = $1 ORDER BY name`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []*store.MenuItem
	for rows.Next() {
		it, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// PutMenuItem upserts a catalog entry. Menu management lives outside the
// order core; this exists for seeding and tests.
func (s *Store) PutMenuItem(ctx context.Context, item *store.MenuItem) error {
	variants, err := json.Marshal(item.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}
	modifiers, err := json.Marshal(item.Modifiers)
	if err != nil {
		return fmt.Errorf("marshal modifiers: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO menu_items (id, tenant_id, category_id, name, price, is_available, variants, modifiers, station)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, is_available = EXCLUDED.is_available,
			variants = EXCLUDED.variants, modifiers = EXCLUDED.modifiers, station = EXCLUDED.station`,
		item.ID, item.TenantID, item.CategoryID, item.Name, item.Price.String(),
		item.IsAvailable, variants, modifiers, item.Station)
	if err != nil {
		return fmt.Errorf("upsert menu item: %w", err)
	}
	return nil
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, tenant_id, name, email, hashed_password, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.TenantID, u.Name, u.Email, u.HashedPassword, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, email, hashed_password, role, created_at
		FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (*store.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, email, hashed_password, role, created_at
		FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// --- Scan helpers ---

func marshalOrderJSON(o *store.Order) (items, payments, discount []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal items: %w", err)
	}
	if payments, err = json.Marshal(o.Payments); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal payments: %w", err)
	}
	if o.Discount != nil {
		if discount, err = json.Marshal(o.Discount); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal discount: %w", err)
		}
	}
	return items, payments, discount, nil
}

func scanOrder(row pgx.Row) (*store.Order, error) {
	var (
		o        store.Order
		items    []byte
		payments []byte
		discount []byte
	)
	err := row.Scan(&o.ID, &o.TenantID, &o.TableID, &o.OrderNumber, &o.Status, &items, &payments,
		&o.Note, &o.WaiterID, &o.WaiterName, &discount, &o.Complimentary, &o.CreatedAt, &o.UpdatedAt, &o.ClosedAt)
	if err != nil {
		return nil, mapScanErr(err, "scan order")
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(payments, &o.Payments); err != nil {
		return nil, fmt.Errorf("unmarshal payments: %w", err)
	}
	if len(discount) > 0 {
		o.Discount = &store.Discount{}
		if err := json.Unmarshal(discount, o.Discount); err != nil {
			return nil, fmt.Errorf("unmarshal discount: %w", err)
		}
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]*store.Order, error) {
	var orders []*store.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanTable(row pgx.Row) (*store.Table, error) {
	var t store.Table
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.Status, &t.CustomerName, &t.Note,
		&t.Generation, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapScanErr(err, "scan table")
	}
	return &t, nil
}

func scanTenant(row pgx.Row) (*store.Tenant, error) {
	var (
		t             store.Tenant
		taxRate       string
		serviceCharge string
		rounding      string
		perms         []byte
	)
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Currency, &t.Timezone, &taxRate,
		&serviceCharge, &rounding, &t.Subscription.Status, &t.Subscription.TrialEndsAt,
		&perms, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapScanErr(err, "scan tenant")
	}
	if t.TaxRatePercent, err = decimal.NewFromString(taxRate); err != nil {
		return nil, fmt.Errorf("parse tax rate: %w", err)
	}
	if t.ServiceChargePercent, err = decimal.NewFromString(serviceCharge); err != nil {
		return nil, fmt.Errorf("parse service charge: %w", err)
	}
	if t.RoundingIncrement, err = decimal.NewFromString(rounding); err != nil {
		return nil, fmt.Errorf("parse rounding increment: %w", err)
	}
	if err := json.Unmarshal(perms, &t.Permissions); err != nil {
		return nil, fmt.Errorf("unmarshal permissions: %w", err)
	}
	return &t, nil
}

func scanMenuItem(row pgx.Row) (*store.MenuItem, error) {
	var (
		it        store.MenuItem
		price     string
		variants  []byte
		modifiers []byte
	)
	err := row.Scan(&it.ID, &it.TenantID, &it.CategoryID, &it.Name, &price,
		&it.IsAvailable, &variants, &modifiers, &it.Station)
	if err != nil {
		return nil, mapScanErr(err, "scan menu item")
	}
	if it.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	if err := json.Unmarshal(variants, &it.Variants); err != nil {
		return nil, fmt.Errorf("unmarshal variants: %w", err)
	}
	if err := json.Unmarshal(modifiers, &it.Modifiers); err != nil {
		return nil, fmt.Errorf("unmarshal modifiers: %w", err)
	}
	return &it, nil
}

func scanUser(row pgx.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, mapScanErr(err, "scan user")
	}
	return &u, nil
}

func permsOrEmpty(p map[string]map[string]bool) map[string]map[string]bool {
	if p == nil {
		return map[string]map[string]bool{}
	}
	return p
}

func mapScanErr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
