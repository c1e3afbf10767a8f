package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/store"
)

func seedUser(t *testing.T, e *env, email, password, role string) uuid.UUID {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id := uuid.New()
	if err := e.store.CreateUser(context.Background(), &store.User{
		ID:             id,
		TenantID:       e.tenantID,
		Name:           "Wanda",
		Email:          email,
		HashedPassword: string(hash),
		Role:           role,
		CreatedAt:      time.Now(),
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	seedUser(t, e, "wanda@test.local", "secret123", enum.RoleWaiter)

	status, resp := e.do("POST", "/auth/login", map[string]string{
		"email": "wanda@test.local", "password": "secret123",
	}, "")
	if status != http.StatusOK {
		t.Fatalf("login: got %d, body %v", status, resp)
	}
	if resp["access_token"].(string) == "" {
		t.Error("empty access token")
	}
	user := resp["user"].(map[string]interface{})
	if user["role"].(string) != enum.RoleWaiter {
		t.Errorf("role: got %v, want WAITER", user["role"])
	}

	// The issued token actually works against a protected route.
	token := resp["access_token"].(string)
	status, _ = e.do("GET", e.tenantPath("/orders"), nil, token)
	if status != http.StatusOK {
		t.Fatalf("token rejected: got %d, want 200", status)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	seedUser(t, e, "wanda@test.local", "secret123", enum.RoleWaiter)

	status, _ := e.do("POST", "/auth/login", map[string]string{
		"email": "wanda@test.local", "password": "wrong",
	}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", status)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("POST", "/auth/login", map[string]string{
		"email": "ghost@test.local", "password": "whatever",
	}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", status)
	}
}

func TestLoginMissingFields(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("POST", "/auth/login", map[string]string{"email": "a@b.c"}, "")
	if status != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", status)
	}
}

func TestRefreshFlow(t *testing.T) {
	e := newEnv(t)
	seedUser(t, e, "wanda@test.local", "secret123", enum.RoleWaiter)

	_, loginResp := e.do("POST", "/auth/login", map[string]string{
		"email": "wanda@test.local", "password": "secret123",
	}, "")

	status, resp := e.do("POST", "/auth/refresh", map[string]string{
		"refresh_token": loginResp["refresh_token"].(string),
	}, "")
	if status != http.StatusOK {
		t.Fatalf("refresh: got %d, body %v", status, resp)
	}
	if resp["access_token"].(string) == "" {
		t.Error("empty access token after refresh")
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do("POST", "/auth/refresh", map[string]string{
		"refresh_token": "not-a-token",
	}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", status)
	}
}
