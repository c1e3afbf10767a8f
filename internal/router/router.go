package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mesa-pos/api/internal/config"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/handler"
	mw "github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/store"
	"github.com/mesa-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, tenant scoping, and role-based middleware as needed.
// The caller owns tableService so it can stop pending reopen timers on
// shutdown.
func New(cfg *config.Config, st store.Store, hub *ws.Hub, tableService *service.TableService) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(st, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/tenants/{tid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	orderService := service.NewOrderService(st, tableService)
	reportService := service.NewReportService(st)

	orderHandler := handler.NewOrderHandler(orderService, hub)
	tableHandler := handler.NewTableHandler(tableService)
	reportHandler := handler.NewReportHandler(reportService)
	tenantHandler := handler.NewTenantHandler(st)
	menuHandler := handler.NewMenuHandler(st)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Platform management, SUPER_ADMIN only
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleSuperAdmin))
			tenantHandler.RegisterAdminRoutes(r)
		})

		// Tenant-scoped routes
		r.Route("/tenants/{tid}", func(r chi.Router) {
			r.Use(mw.RequireTenant)

			r.Route("/orders", orderHandler.RegisterRoutes)
			r.Route("/menu", menuHandler.RegisterRoutes)
			r.Route("/reports", reportHandler.RegisterRoutes)

			r.Route("/tables", func(r chi.Router) {
				tableHandler.RegisterRoutes(r)
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleSuperAdmin))
					tableHandler.RegisterAdminRoutes(r)
				})
			})

			r.Route("/settings", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleSuperAdmin))
				tenantHandler.RegisterSettingsRoutes(r)
			})
		})
	})

	return r
}
