// Command seed loads a demo tenant with staff accounts, tables and a small
// menu so a fresh environment is immediately usable.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/store"
	"github.com/mesa-pos/api/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if err := postgres.Migrate(databaseURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	st := postgres.New(pool)
	now := time.Now()

	tenant := &store.Tenant{
		ID:                   uuid.New(),
		Name:                 "Demo Bistro",
		Slug:                 "demo-bistro",
		Currency:             "USD",
		Timezone:             "America/New_York",
		TaxRatePercent:       decimal.NewFromInt(10),
		ServiceChargePercent: decimal.NewFromInt(5),
		RoundingIncrement:    decimal.RequireFromString("0.05"),
		Subscription:         store.Subscription{Status: enum.SubscriptionActive},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := st.CreateTenant(ctx, tenant); err != nil {
		log.Fatalf("create tenant: %v", err)
	}

	users := []struct {
		name, email, password, role string
	}{
		{"Platform Admin", "super@demo.local", "super123", enum.RoleSuperAdmin},
		{"Alice Admin", "admin@demo.local", "admin123", enum.RoleAdmin},
		{"Wanda Waiter", "waiter@demo.local", "waiter123", enum.RoleWaiter},
		{"Kit Kitchen", "kitchen@demo.local", "kitchen123", enum.RoleKitchen},
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		if err := st.CreateUser(ctx, &store.User{
			ID:             uuid.New(),
			TenantID:       tenant.ID,
			Name:           u.name,
			Email:          u.email,
			HashedPassword: string(hash),
			Role:           u.role,
			CreatedAt:      now,
		}); err != nil {
			log.Fatalf("create user %s: %v", u.email, err)
		}
	}

	for i := 1; i <= 8; i++ {
		if err := st.CreateTable(ctx, &store.Table{
			ID:        uuid.New(),
			TenantID:  tenant.ID,
			Name:      fmt.Sprintf("T%d", i),
			Status:    enum.TableStatusFree,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			log.Fatalf("create table: %v", err)
		}
	}

	menu := []*store.MenuItem{
		{
			ID: uuid.New(), TenantID: tenant.ID, Name: "Classic Burger",
			Price: decimal.RequireFromString("12.50"), IsAvailable: true, Station: "GRILL",
			Modifiers: []store.Modifier{
				{ID: uuid.New(), Name: "Extra Cheese", PriceDelta: decimal.RequireFromString("1.50")},
				{ID: uuid.New(), Name: "Bacon", PriceDelta: decimal.RequireFromString("2.00")},
			},
		},
		{
			ID: uuid.New(), TenantID: tenant.ID, Name: "Caesar Salad",
			Price: decimal.RequireFromString("9.00"), IsAvailable: true, Station: "COLD",
			Variants: []store.Variant{
				{ID: uuid.New(), Name: "With Chicken", Price: decimal.RequireFromString("12.00")},
			},
		},
		{
			ID: uuid.New(), TenantID: tenant.ID, Name: "Iced Tea",
			Price: decimal.RequireFromString("3.00"), IsAvailable: true, Station: "BAR",
			Variants: []store.Variant{
				{ID: uuid.New(), Name: "Large", Price: decimal.RequireFromString("4.00")},
			},
		},
		{
			ID: uuid.New(), TenantID: tenant.ID, Name: "Espresso",
			Price: decimal.RequireFromString("2.50"), IsAvailable: true, Station: "BAR",
		},
	}
	for _, item := range menu {
		if err := st.PutMenuItem(ctx, item); err != nil {
			log.Fatalf("create menu item %s: %v", item.Name, err)
		}
	}

	log.Printf("seeded tenant %s (%s) with %d users, 8 tables, %d menu items",
		tenant.Name, tenant.ID, len(users), len(menu))
}
