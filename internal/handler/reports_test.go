package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/store"
)

// seedClosedOrder inserts a CLOSED order directly so the reporting window is
// under test control.
func seedClosedOrder(t *testing.T, e *env, closedAt time.Time, amount string, qty int32, method string) {
	t.Helper()
	price := decimal.RequireFromString(amount)
	total := price.Mul(decimal.NewFromInt32(qty))
	order := &store.Order{
		ID:          uuid.New(),
		TenantID:    e.tenantID,
		TableID:     e.tableID,
		OrderNumber: "ORD-9999",
		Status:      enum.OrderStatusClosed,
		Items: []store.OrderItem{
			{ID: uuid.New(), MenuItemID: e.burgerID, Name: "Burger", Quantity: qty,
				UnitPrice: price, Status: enum.ItemStatusServed, Station: "GRILL"},
		},
		Payments: []store.Payment{
			{ID: uuid.New(), Method: method, Amount: total, RecordedBy: e.waiterID, RecordedAt: closedAt},
		},
		WaiterID:   e.waiterID,
		WaiterName: "Wanda",
		CreatedAt:  closedAt.Add(-time.Hour),
		UpdatedAt:  closedAt,
		ClosedAt:   &closedAt,
	}
	if err := e.store.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("seed closed order: %v", err)
	}
}

func TestReportSummaryEndpoint(t *testing.T) {
	e := newEnv(t)
	day := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	seedClosedOrder(t, e, day, "10.00", 2, enum.PaymentMethodCash)
	seedClosedOrder(t, e, day.Add(time.Hour), "10.00", 1, enum.PaymentMethodCard)
	// Outside the window.
	seedClosedOrder(t, e, day.AddDate(0, 0, 2), "10.00", 5, enum.PaymentMethodCash)

	status, resp := e.do("GET", e.tenantPath("/reports/summary?start_date=2026-03-10&end_date=2026-03-10"), nil, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("status: got %d, body %v", status, resp)
	}

	if got := resp["total_orders"]; got != float64(2) {
		t.Errorf("total orders: got %v, want 2", got)
	}
	if got := resp["total_revenue"].(string); got != "30" {
		t.Errorf("total revenue: got %v, want 30", got)
	}
}

func TestReportSummaryInvalidRange(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("GET", e.tenantPath("/reports/summary?start_date=2026-03-10&end_date=2026-03-01"), nil, e.waiterToken)
	if status != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", status)
	}

	status, _ = e.do("GET", e.tenantPath("/reports/summary?start_date=not-a-date"), nil, e.waiterToken)
	if status != http.StatusBadRequest {
		t.Fatalf("malformed date: got %d, want 400", status)
	}
}

func TestEndOfDayEndpoint(t *testing.T) {
	e := newEnv(t)
	day := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	seedClosedOrder(t, e, day, "10.00", 2, enum.PaymentMethodCash)
	seedClosedOrder(t, e, day.Add(time.Hour), "10.00", 1, enum.PaymentMethodCard)

	status, resp := e.do("GET", e.tenantPath("/reports/end-of-day?start_date=2026-03-10&end_date=2026-03-10"), nil, e.adminToken)
	if status != http.StatusOK {
		t.Fatalf("status: got %d, body %v", status, resp)
	}

	buckets := resp["payment_totals"].(map[string]interface{})
	if got := buckets[enum.PaymentMethodCash].(string); got != "20" {
		t.Errorf("cash bucket: got %v, want 20", got)
	}
	if got := buckets[enum.PaymentMethodCard].(string); got != "10" {
		t.Errorf("card bucket: got %v, want 10", got)
	}
}
