package handler_test

import (
	"net/http"
	"testing"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/permission"
)

func TestSettingsRequireAdmin(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("GET", e.tenantPath("/settings"), nil, e.waiterToken)
	if status != http.StatusForbidden {
		t.Fatalf("waiter settings: got %d, want 403", status)
	}

	status, resp := e.do("GET", e.tenantPath("/settings"), nil, e.adminToken)
	if status != http.StatusOK {
		t.Fatalf("admin settings: got %d, body %v", status, resp)
	}
	if resp["tax_rate_percent"].(string) != "10.00" {
		t.Errorf("tax rate: got %v, want 10.00", resp["tax_rate_percent"])
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do("PUT", e.tenantPath("/settings"), map[string]string{
		"tax_rate_percent":   "11",
		"rounding_increment": "0.05",
	}, e.adminToken)
	if status != http.StatusOK {
		t.Fatalf("update settings: got %d, body %v", status, resp)
	}
	if resp["tax_rate_percent"].(string) != "11.00" {
		t.Errorf("tax rate: got %v, want 11.00", resp["tax_rate_percent"])
	}
	// Untouched fields keep their values.
	if resp["service_charge_percent"].(string) != "5.00" {
		t.Errorf("service charge: got %v, want 5.00", resp["service_charge_percent"])
	}
	if resp["name"].(string) != "Test Bistro" {
		t.Errorf("name: got %v, want Test Bistro", resp["name"])
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"negative tax", map[string]string{"tax_rate_percent": "-1"}},
		{"tax over 100", map[string]string{"tax_rate_percent": "101"}},
		{"bad timezone", map[string]string{"timezone": "Mars/Olympus"}},
		{"negative rounding", map[string]string{"rounding_increment": "-0.05"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := e.do("PUT", e.tenantPath("/settings"), tc.body, e.adminToken)
			if status != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", status)
			}
		})
	}
}

func TestPermissionOverridesTakeEffect(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do("PUT", e.tenantPath("/settings/permissions"), map[string]interface{}{
		"permissions": map[string]map[string]bool{
			enum.RoleWaiter: {string(permission.KeyPayments): false},
		},
	}, e.adminToken)
	if status != http.StatusOK {
		t.Fatalf("update permissions: got %d, body %v", status, resp)
	}

	// The revoked waiter can no longer record payments.
	orderID := e.orderID(e.createOrder())
	e.serveAll(orderID)
	status, _ = e.do("POST", e.tenantPath("/orders/"+orderID+"/payments"), map[string]interface{}{
		"method": enum.PaymentMethodCash,
		"amount": "1.00",
	}, e.waiterToken)
	if status != http.StatusForbidden {
		t.Fatalf("payment after revoke: got %d, want 403", status)
	}
}

func TestPermissionUpdateRejectsUnknownKey(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("PUT", e.tenantPath("/settings/permissions"), map[string]interface{}{
		"permissions": map[string]map[string]bool{
			enum.RoleWaiter: {"LAUNCH_MISSILES": true},
		},
	}, e.adminToken)
	if status != http.StatusBadRequest {
		t.Fatalf("unknown key: got %d, want 400", status)
	}

	status, _ = e.do("PUT", e.tenantPath("/settings/permissions"), map[string]interface{}{
		"permissions": map[string]map[string]bool{
			enum.RoleAdmin: {string(permission.KeyPayments): false},
		},
	}, e.adminToken)
	if status != http.StatusBadRequest {
		t.Fatalf("override for ADMIN: got %d, want 400", status)
	}
}

func TestSuperAdminTenantManagement(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("GET", "/tenants", nil, e.adminToken)
	if status != http.StatusForbidden {
		t.Fatalf("admin list tenants: got %d, want 403", status)
	}

	status, resp := e.do("GET", "/tenants", nil, e.superToken)
	if status != http.StatusOK {
		t.Fatalf("super list tenants: got %d, body %v", status, resp)
	}
	if len(resp["tenants"].([]interface{})) != 1 {
		t.Fatalf("tenants: got %d, want 1", len(resp["tenants"].([]interface{})))
	}

	status, resp = e.do("PATCH", "/tenants/"+e.tenantID.String()+"/subscription", map[string]string{
		"subscription": enum.SubscriptionExpired,
	}, e.superToken)
	if status != http.StatusOK {
		t.Fatalf("update subscription: got %d, body %v", status, resp)
	}
	if resp["subscription"].(string) != enum.SubscriptionExpired {
		t.Errorf("subscription: got %v, want EXPIRED", resp["subscription"])
	}

	status, _ = e.do("PATCH", "/tenants/"+e.tenantID.String()+"/subscription", map[string]string{
		"subscription": "LAPSED",
	}, e.superToken)
	if status != http.StatusBadRequest {
		t.Fatalf("bad subscription value: got %d, want 400", status)
	}
}

func TestMenuEndpoint(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do("GET", e.tenantPath("/menu"), nil, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("status: got %d, body %v", status, resp)
	}

	items := resp["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("menu items: got %d, want 2", len(items))
	}

	var soda map[string]interface{}
	for _, it := range items {
		m := it.(map[string]interface{})
		if m["name"].(string) == "Soda" {
			soda = m
		}
	}
	if soda == nil {
		t.Fatal("soda missing from menu")
	}
	variants := soda["variants"].([]interface{})
	if variants[0].(map[string]interface{})["price"].(string) != "3.50" {
		t.Errorf("variant price: got %v, want 3.50", variants[0].(map[string]interface{})["price"])
	}
}
