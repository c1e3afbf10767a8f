package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/auth"
	"github.com/mesa-pos/api/internal/config"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/router"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/store"
	"github.com/mesa-pos/api/internal/store/memory"
	"github.com/mesa-pos/api/internal/ws"
)

const testSecret = "handler-test-secret"

// env boots the full router against the in-memory store with one seeded
// tenant, table and menu so individual tests only exercise their endpoint.
type env struct {
	t      *testing.T
	server *httptest.Server
	store  *memory.Store

	tenantID      uuid.UUID
	tableID       uuid.UUID
	burgerID      uuid.UUID
	sodaID        uuid.UUID
	sodaVariantID uuid.UUID

	waiterID     uuid.UUID
	waiterToken  string
	kitchenToken string
	adminToken   string
	superToken   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := memory.New()
	ctx := context.Background()
	now := time.Now()

	e := &env{
		t:        t,
		store:    st,
		tenantID: uuid.New(),
		waiterID: uuid.New(),
	}

	if err := st.CreateTenant(ctx, &store.Tenant{
		ID:                   e.tenantID,
		Name:                 "Test Bistro",
		Slug:                 "test-bistro",
		Currency:             "USD",
		Timezone:             "UTC",
		TaxRatePercent:       decimal.NewFromInt(10),
		ServiceChargePercent: decimal.NewFromInt(5),
		RoundingIncrement:    decimal.Zero,
		Subscription:         store.Subscription{Status: enum.SubscriptionActive},
		CreatedAt:            now,
		UpdatedAt:            now,
	}); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}

	table := &store.Table{
		ID: uuid.New(), TenantID: e.tenantID, Name: "T1",
		Status: enum.TableStatusFree, CreatedAt: now, UpdatedAt: now,
	}
	if err := st.CreateTable(ctx, table); err != nil {
		t.Fatalf("seed table: %v", err)
	}
	e.tableID = table.ID

	e.burgerID = uuid.New()
	if err := st.PutMenuItem(ctx, &store.MenuItem{
		ID: e.burgerID, TenantID: e.tenantID, Name: "Burger",
		Price: decimal.RequireFromString("10.00"), IsAvailable: true, Station: "GRILL",
	}); err != nil {
		t.Fatalf("seed burger: %v", err)
	}

	e.sodaID = uuid.New()
	e.sodaVariantID = uuid.New()
	if err := st.PutMenuItem(ctx, &store.MenuItem{
		ID: e.sodaID, TenantID: e.tenantID, Name: "Soda",
		Price: decimal.RequireFromString("2.50"), IsAvailable: true, Station: "BAR",
		Variants: []store.Variant{
			{ID: e.sodaVariantID, Name: "Large", Price: decimal.RequireFromString("3.50")},
		},
	}); err != nil {
		t.Fatalf("seed soda: %v", err)
	}

	cfg := &config.Config{
		Port:             "0",
		JWTSecret:        testSecret,
		AllowedOrigins:   []string{"http://localhost:5173"},
		TableReopenDelay: 0,
	}

	hub := ws.NewHub()
	go hub.Run()

	tableService := service.NewTableService(st, cfg.TableReopenDelay)
	t.Cleanup(tableService.Shutdown)

	e.server = httptest.NewServer(router.New(cfg, st, hub, tableService))
	t.Cleanup(e.server.Close)

	e.waiterToken = e.token(e.waiterID, e.tenantID, "Wanda", enum.RoleWaiter)
	e.kitchenToken = e.token(uuid.New(), e.tenantID, "Kit", enum.RoleKitchen)
	e.adminToken = e.token(uuid.New(), e.tenantID, "Ada", enum.RoleAdmin)
	e.superToken = e.token(uuid.New(), uuid.Nil, "Root", enum.RoleSuperAdmin)

	return e
}

func (e *env) token(userID, tenantID uuid.UUID, name, role string) string {
	e.t.Helper()
	tok, err := auth.GenerateToken(testSecret, userID, tenantID, name, role)
	if err != nil {
		e.t.Fatalf("generate token: %v", err)
	}
	return tok
}

// do sends a JSON request and decodes the JSON response body, if any.
func (e *env) do(method, path string, body interface{}, token string) (int, map[string]interface{}) {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func (e *env) tenantPath(suffix string) string {
	return "/tenants/" + e.tenantID.String() + suffix
}

// createOrder opens an order for the seeded table: 2x Burger at 10.00.
func (e *env) createOrder() map[string]interface{} {
	e.t.Helper()
	status, resp := e.do("POST", e.tenantPath("/orders"), map[string]interface{}{
		"table_id": e.tableID.String(),
		"items": []map[string]interface{}{
			{"menu_item_id": e.burgerID.String(), "quantity": 2},
		},
	}, e.waiterToken)
	if status != http.StatusCreated {
		e.t.Fatalf("create order: status %d, body %v", status, resp)
	}
	return resp
}

func (e *env) orderID(resp map[string]interface{}) string {
	e.t.Helper()
	id, ok := resp["id"].(string)
	if !ok || id == "" {
		e.t.Fatalf("response has no order id: %v", resp)
	}
	return id
}

// serveAll walks the order to SERVED via the bulk endpoints: kitchen marks
// everything ready, then the waiter serves.
func (e *env) serveAll(orderID string) {
	e.t.Helper()
	if status, resp := e.do("POST", e.tenantPath("/orders/"+orderID+"/ready"), nil, e.kitchenToken); status != http.StatusOK {
		e.t.Fatalf("mark ready: status %d, body %v", status, resp)
	}
	if status, resp := e.do("POST", e.tenantPath("/orders/"+orderID+"/serve"), nil, e.waiterToken); status != http.StatusOK {
		e.t.Fatalf("serve all: status %d, body %v", status, resp)
	}
}

func (e *env) tableStatus() string {
	e.t.Helper()
	status, resp := e.do("GET", e.tenantPath("/tables/"+e.tableID.String()), nil, e.waiterToken)
	if status != http.StatusOK {
		e.t.Fatalf("get table: status %d", status)
	}
	return resp["status"].(string)
}
