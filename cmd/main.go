// jobdesk-board-service
//
// Job/application lifecycle core for the job board. Exposes an internal HTTP
// API used by the Gateway to implement:
//   - job CRUD with the DRAFT → ACTIVE → CLOSED state machine
//   - applications with the PENDING → ACCEPTED/REJECTED state machine
//   - role-scoped dashboards (employer and job seeker), computed fresh per call
//
// Publishes lifecycle events to Redis for the Gateway SSE forward, and a
// periodic pending-review digest when REMINDER_INTERVAL_HOURS is set.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobdesk/board-service/internal/board"
	"jobdesk/board-service/internal/config"
	"jobdesk/board-service/internal/db"
	"jobdesk/board-service/internal/reminder"
	"jobdesk/board-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[board-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[board-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[board-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[board-service] PostgreSQL connected ✓")

	pg := store.NewPostgres(pool, cfg.StoreTimeout)
	if err := pg.Migrate(ctx); err != nil {
		log.Fatalf("[board-service] Migrate: %v", err)
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[board-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[board-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[board-service] Redis connected ✓")

	// ── Service wiring ───────────────────────────────────────────────────────
	svc := board.NewService(pg, rdb, cfg.RecentLimit)

	if cfg.ReminderIntervalHours > 0 {
		sched := reminder.New(svc, rdb, cfg.ReminderIntervalHours)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("[board-service] Reminder scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := board.NewHandler(svc)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[board-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[board-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[board-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[board-service] Shutdown error: %v", err)
	}
	log.Println("[board-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "board-service",
		"version": version,
	})
}
