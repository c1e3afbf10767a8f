package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mesa-pos/api/internal/config"
	"github.com/mesa-pos/api/internal/router"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/store"
	"github.com/mesa-pos/api/internal/store/memory"
	"github.com/mesa-pos/api/internal/store/postgres"
	"github.com/mesa-pos/api/internal/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer pool.Close()
		st = postgres.New(pool)
		log.Println("using postgres store")
	} else {
		st = memory.New()
		log.Println("WARNING: DATABASE_URL not set, using in-memory store; data will not survive restarts")
	}

	hub := ws.NewHub()
	go hub.Run()

	tableService := service.NewTableService(st, cfg.TableReopenDelay)
	defer tableService.Shutdown()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.New(cfg, st, hub, tableService),
	}

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
