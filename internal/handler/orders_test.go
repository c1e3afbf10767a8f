package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/store"
)

func TestCreateOrderEndpoint(t *testing.T) {
	e := newEnv(t)

	resp := e.createOrder()

	if resp["status"].(string) != enum.OrderStatusNew {
		t.Errorf("order status: got %v, want NEW", resp["status"])
	}
	if resp["order_number"].(string) != "ORD-0001" {
		t.Errorf("order number: got %v, want ORD-0001", resp["order_number"])
	}
	if resp["waiter_name"].(string) != "Wanda" {
		t.Errorf("waiter name: got %v, want Wanda", resp["waiter_name"])
	}

	// 2 x 10.00, 5% service, 10% tax on subtotal+service: 20 + 1 + 2.10
	totals := resp["totals"].(map[string]interface{})
	if totals["subtotal"].(string) != "20.00" {
		t.Errorf("subtotal: got %v, want 20.00", totals["subtotal"])
	}
	if totals["total"].(string) != "23.10" {
		t.Errorf("total: got %v, want 23.10", totals["total"])
	}

	if got := e.tableStatus(); got != enum.TableStatusOccupied {
		t.Errorf("table status after order: got %s, want OCCUPIED", got)
	}
}

func TestCreateOrderWithVariantPricing(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do("POST", e.tenantPath("/orders"), map[string]interface{}{
		"table_id": e.tableID.String(),
		"items": []map[string]interface{}{
			{"menu_item_id": e.sodaID.String(), "variant_id": e.sodaVariantID.String(), "quantity": 1},
		},
	}, e.waiterToken)
	if status != http.StatusCreated {
		t.Fatalf("status: got %d, body %v", status, resp)
	}

	items := resp["items"].([]interface{})
	item := items[0].(map[string]interface{})
	if item["name"].(string) != "Soda (Large)" {
		t.Errorf("item name: got %v, want Soda (Large)", item["name"])
	}
	if item["unit_price"].(string) != "3.50" {
		t.Errorf("unit price: got %v, want 3.50", item["unit_price"])
	}
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("POST", e.tenantPath("/orders"), map[string]interface{}{
		"table_id": e.tableID.String(),
		"items":    []map[string]interface{}{{"menu_item_id": e.burgerID.String(), "quantity": 1}},
	}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", status)
	}
}

func TestCrossTenantAccessForbidden(t *testing.T) {
	e := newEnv(t)

	otherTenantToken := e.token(e.waiterID, uuid.New(), "Eve", enum.RoleWaiter)
	status, _ := e.do("GET", e.tenantPath("/orders"), nil, otherTenantToken)
	if status != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", status)
	}
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	e := newEnv(t)
	orderID := e.orderID(e.createOrder())

	// Kitchen marks everything ready, waiter serves, waiter closes.
	e.serveAll(orderID)

	status, resp := e.do("POST", e.tenantPath("/orders/"+orderID+"/close"), nil, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("close: status %d, body %v", status, resp)
	}
	if resp["status"].(string) != enum.OrderStatusClosed {
		t.Errorf("order status: got %v, want CLOSED", resp["status"])
	}
	if resp["closed_at"] == nil {
		t.Error("closed_at not set")
	}
	if got := e.tableStatus(); got != enum.TableStatusFree {
		t.Errorf("table status after close: got %s, want FREE", got)
	}
}

func TestCloseBeforeServedConflicts(t *testing.T) {
	e := newEnv(t)
	orderID := e.orderID(e.createOrder())

	status, _ := e.do("POST", e.tenantPath("/orders/"+orderID+"/close"), nil, e.waiterToken)
	if status != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", status)
	}
}

func TestKitchenCannotCloseOrder(t *testing.T) {
	e := newEnv(t)
	orderID := e.orderID(e.createOrder())
	e.serveAll(orderID)

	status, _ := e.do("POST", e.tenantPath("/orders/"+orderID+"/close"), nil, e.kitchenToken)
	if status != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", status)
	}
}

func TestItemStatusEndpoint(t *testing.T) {
	e := newEnv(t)
	resp := e.createOrder()
	orderID := e.orderID(resp)
	itemID := resp["items"].([]interface{})[0].(map[string]interface{})["id"].(string)

	status, resp := e.do("PATCH", e.tenantPath("/orders/"+orderID+"/items/"+itemID+"/status"),
		map[string]string{"status": enum.ItemStatusInPreparation}, e.kitchenToken)
	if status != http.StatusOK {
		t.Fatalf("status: got %d, body %v", status, resp)
	}
	item := resp["items"].([]interface{})[0].(map[string]interface{})
	if item["status"].(string) != enum.ItemStatusInPreparation {
		t.Errorf("item status: got %v, want IN_PREPARATION", item["status"])
	}
	// Order status only derives to READY or SERVED; a single cooking line
	// leaves the order where it was.
	if resp["status"].(string) != enum.OrderStatusNew {
		t.Errorf("order status: got %v, want NEW", resp["status"])
	}

	// Backward move is rejected.
	status, _ = e.do("PATCH", e.tenantPath("/orders/"+orderID+"/items/"+itemID+"/status"),
		map[string]string{"status": enum.ItemStatusNew}, e.kitchenToken)
	if status != http.StatusConflict {
		t.Fatalf("backward transition: got %d, want 409", status)
	}
}

func TestCancelOrderEndpointFreesTable(t *testing.T) {
	e := newEnv(t)
	orderID := e.orderID(e.createOrder())

	status, resp := e.do("DELETE", e.tenantPath("/orders/"+orderID), nil, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("cancel: status %d, body %v", status, resp)
	}
	if resp["status"].(string) != enum.OrderStatusCanceled {
		t.Errorf("order status: got %v, want CANCELED", resp["status"])
	}
	if got := e.tableStatus(); got != enum.TableStatusFree {
		t.Errorf("table status after cancel: got %s, want FREE", got)
	}
}

func TestAddPaymentEndpoint(t *testing.T) {
	e := newEnv(t)
	orderID := e.orderID(e.createOrder())
	e.serveAll(orderID)

	// Total is 23.10; cash 23.10 with 30.00 received.
	status, resp := e.do("POST", e.tenantPath("/orders/"+orderID+"/payments"), map[string]interface{}{
		"method":          enum.PaymentMethodCash,
		"amount":          "23.10",
		"amount_received": "30.00",
	}, e.waiterToken)
	if status != http.StatusCreated {
		t.Fatalf("add payment: status %d, body %v", status, resp)
	}

	payments := resp["payments"].([]interface{})
	if len(payments) != 1 {
		t.Fatalf("payments: got %d, want 1", len(payments))
	}
	payment := payments[0].(map[string]interface{})
	if payment["change_amount"].(string) != "6.90" {
		t.Errorf("change: got %v, want 6.90", payment["change_amount"])
	}

	// A second payment would exceed the total.
	status, _ = e.do("POST", e.tenantPath("/orders/"+orderID+"/payments"), map[string]interface{}{
		"method": enum.PaymentMethodCard,
		"amount": "1.00",
	}, e.waiterToken)
	if status != http.StatusConflict {
		t.Fatalf("overpayment: got %d, want 409", status)
	}
}

func TestDiscountEndpoint(t *testing.T) {
	e := newEnv(t)
	orderID := e.orderID(e.createOrder())

	status, resp := e.do("PATCH", e.tenantPath("/orders/"+orderID+"/discount"), map[string]string{
		"type":  enum.DiscountTypePercent,
		"value": "50",
	}, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("apply discount: status %d, body %v", status, resp)
	}
	totals := resp["totals"].(map[string]interface{})
	if totals["discount_amount"].(string) != "10.00" {
		t.Errorf("discount amount: got %v, want 10.00", totals["discount_amount"])
	}

	status, _ = e.do("PATCH", e.tenantPath("/orders/"+orderID+"/discount"), map[string]string{
		"type":  "BOGUS",
		"value": "50",
	}, e.waiterToken)
	if status != http.StatusBadRequest {
		t.Fatalf("invalid discount type: got %d, want 400", status)
	}
}

func TestExpiredSubscriptionBlocksNewOrders(t *testing.T) {
	e := newEnv(t)

	_, err := e.store.UpdateTenant(context.Background(), e.tenantID, func(tn *store.Tenant) error {
		tn.Subscription.Status = enum.SubscriptionExpired
		return nil
	})
	if err != nil {
		t.Fatalf("expire subscription: %v", err)
	}

	status, _ := e.do("POST", e.tenantPath("/orders"), map[string]interface{}{
		"table_id": e.tableID.String(),
		"items":    []map[string]interface{}{{"menu_item_id": e.burgerID.String(), "quantity": 1}},
	}, e.waiterToken)
	if status != http.StatusPaymentRequired {
		t.Fatalf("status: got %d, want 402", status)
	}

	// Reads keep working for expired tenants.
	status, _ = e.do("GET", e.tenantPath("/orders"), nil, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("list orders: got %d, want 200", status)
	}
}

func TestListOrdersFilterByStatus(t *testing.T) {
	e := newEnv(t)
	orderID := e.orderID(e.createOrder())
	e.serveAll(orderID)
	if status, _ := e.do("POST", e.tenantPath("/orders/"+orderID+"/close"), nil, e.waiterToken); status != http.StatusOK {
		t.Fatalf("close: status %d", status)
	}
	e.createOrder()

	status, resp := e.do("GET", e.tenantPath("/orders?status=NEW"), nil, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	orders := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Fatalf("filtered orders: got %d, want 1", len(orders))
	}
	if orders[0].(map[string]interface{})["status"].(string) != enum.OrderStatusNew {
		t.Errorf("order status: got %v, want NEW", orders[0].(map[string]interface{})["status"])
	}
}
