/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance check-in engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and environment config
  2. Initialize SQLite store and seed the reward catalog
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  APP_PORT, DB_PATH, CHECKIN_BASE_URL, CHECKIN_TIMEZONE,
  CHECKIN_WINDOW_START, CHECKIN_WINDOW_END, CHECKIN_EARLY_UNTIL,
  CHECKIN_ONTIME_UNTIL, CHECKIN_LATE_UNTIL, CHECKIN_ROTATION,
  CHECKIN_MANUAL_VERSION. A local .env file is honored if present.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/checkin-engine/api"
	"github.com/warp/checkin-engine/config"
	"github.com/warp/checkin-engine/gamify"
	"github.com/warp/checkin-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the environment.
	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.App.DBPath, "SQLite database path")
	flag.Parse()

	settings, err := cfg.Settings()
	if err != nil {
		log.Fatalf("Invalid check-in settings: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Seed the reward catalog on first run. Existing rows are kept.
	if err := store.SeedCatalog(context.Background(), gamify.DefaultCatalog()); err != nil {
		log.Printf("Warning: failed to seed reward catalog: %v", err)
	}

	// Initialize handler and router
	handler := api.NewHandler(store, store, settings, gamify.SystemClock{})
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📟 Kiosk token endpoint at http://localhost:%d/api/token", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
