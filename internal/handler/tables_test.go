package handler_test

import (
	"net/http"
	"testing"

	"github.com/mesa-pos/api/internal/enum"
)

func TestTableCreateRequiresAdmin(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("POST", e.tenantPath("/tables"), map[string]string{"name": "T2"}, e.waiterToken)
	if status != http.StatusForbidden {
		t.Fatalf("waiter create: got %d, want 403", status)
	}

	status, resp := e.do("POST", e.tenantPath("/tables"), map[string]string{"name": "T2"}, e.adminToken)
	if status != http.StatusCreated {
		t.Fatalf("admin create: got %d, body %v", status, resp)
	}
	if resp["status"].(string) != enum.TableStatusFree {
		t.Errorf("new table status: got %v, want FREE", resp["status"])
	}
}

func TestTableCreateRequiresName(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("POST", e.tenantPath("/tables"), map[string]string{"name": ""}, e.adminToken)
	if status != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", status)
	}
}

func TestTableListEndpoint(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do("GET", e.tenantPath("/tables"), nil, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
	tables := resp["tables"].([]interface{})
	if len(tables) != 1 {
		t.Fatalf("tables: got %d, want 1", len(tables))
	}
}

func TestTableManualStatusEndpoint(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do("PATCH", e.tenantPath("/tables/"+e.tableID.String()+"/status"), map[string]string{
		"status":        enum.TableStatusOccupied,
		"customer_name": "Walk-in",
	}, e.waiterToken)
	if status != http.StatusOK {
		t.Fatalf("set status: got %d, body %v", status, resp)
	}
	if resp["customer_name"].(string) != "Walk-in" {
		t.Errorf("customer name: got %v, want Walk-in", resp["customer_name"])
	}

	status, _ = e.do("PATCH", e.tenantPath("/tables/"+e.tableID.String()+"/status"), map[string]string{
		"status": "BOGUS",
	}, e.waiterToken)
	if status != http.StatusBadRequest {
		t.Fatalf("invalid status: got %d, want 400", status)
	}
}

func TestTableStatusRejectedWhileOrderOpen(t *testing.T) {
	e := newEnv(t)
	e.createOrder()

	status, _ := e.do("PATCH", e.tenantPath("/tables/"+e.tableID.String()+"/status"), map[string]string{
		"status": enum.TableStatusFree,
	}, e.waiterToken)
	if status != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", status)
	}
}

func TestTableDeleteEndpoint(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("DELETE", e.tenantPath("/tables/"+e.tableID.String()), nil, e.waiterToken)
	if status != http.StatusForbidden {
		t.Fatalf("waiter delete: got %d, want 403", status)
	}

	status, _ = e.do("DELETE", e.tenantPath("/tables/"+e.tableID.String()), nil, e.adminToken)
	if status != http.StatusNoContent {
		t.Fatalf("admin delete: got %d, want 204", status)
	}

	status, _ = e.do("GET", e.tenantPath("/tables/"+e.tableID.String()), nil, e.waiterToken)
	if status != http.StatusNotFound {
		t.Fatalf("get deleted: got %d, want 404", status)
	}
}

func TestTableDeleteRejectedWhileOrderOpen(t *testing.T) {
	e := newEnv(t)
	e.createOrder()

	status, _ := e.do("DELETE", e.tenantPath("/tables/"+e.tableID.String()), nil, e.adminToken)
	if status != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", status)
	}
}
