/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the phase tracker server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (environment variables as defaults)
  2. Initialize SQLite store
  3. Build the phase templates (presets or a template directory)
  4. Open the book; phases that fail to load are retried in the background.
     Stored phases without a template are logged.
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port         HTTP server port (TRACKER_PORT, default: 8080)
  -db           SQLite database path (TRACKER_DB, default: tracker.db)
                Use ":memory:" for in-memory database
  -templates    Directory of template JSON files (TRACKER_TEMPLATES)
  -presets      Comma-separated preset ids when no directory is given
                (TRACKER_PRESETS, default: phase1,phase2)
  -currency     ISO currency code for display (TRACKER_CURRENCY, default: EUR)
  -daily-loss   Daily loss limit, negative (default: -1000)
  -max-loss     Total loss limit, negative (default: -5000)
  -retry        Interval of the background load retry (default: 30s)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Flush queued phase writes
  4. Close database connection

EXAMPLES:
  ./server -db="./data/tracker.db"
  ./server -db=":memory:" -presets=phase1,phase2,sprint
  TRACKER_PORT=3000 ./server

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
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/phase-tracker/api"
	"github.com/warp/phase-tracker/factory"
	"github.com/warp/phase-tracker/format"
	"github.com/warp/phase-tracker/store/sqlite"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tradelog"
)

func main() {
	defaults := tradelog.DefaultLossPolicy()

	// Flags
	port := flag.Int("port", envInt("TRACKER_PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envOr("TRACKER_DB", "tracker.db"), "SQLite database path")
	templateDir := flag.String("templates", envOr("TRACKER_TEMPLATES", ""), "Directory of phase template JSON files")
	presets := flag.String("presets", envOr("TRACKER_PRESETS", "phase1,phase2"), "Comma-separated preset template ids")
	currency := flag.String("currency", envOr("TRACKER_CURRENCY", format.DefaultCurrency), "Display currency")
	dailyLoss := flag.String("daily-loss", defaults.DailyLossLimit.String(), "Daily loss limit (negative)")
	maxLoss := flag.String("max-loss", defaults.MaxTotalLoss.String(), "Total loss limit (negative)")
	retry := flag.Duration("retry", 30*time.Second, "Background load retry interval")
	flag.Parse()

	policy, err := lossPolicy(*dailyLoss, *maxLoss)
	if err != nil {
		log.Fatalf("Invalid loss limits: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	templates, err := loadTemplates(*templateDir, *presets)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	queue := tracker.NewSaveQueue(store, tracker.DefaultRetryPolicy())
	book := tracker.NewBook(store, templates, queue)

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	if err := book.Open(openCtx); err != nil {
		log.Printf("Warning: some phases failed to load, retrying in background: %v", err)
	}
	cancelOpen()
	warnOrphans(book)

	scheduler := api.NewLoadScheduler(book)
	scheduler.CheckInterval = *retry
	scheduler.Start()

	// Initialize handler
	handler, err := api.NewHandler(book, store, policy, *currency)
	if err != nil {
		log.Fatalf("Failed to initialize handler: %v", err)
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
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
		log.Printf("Server forced to shutdown: %v", err)
	}
	scheduler.Stop()
	if err := book.Close(ctx); err != nil {
		log.Printf("Warning: %v", err)
	}

	log.Println("Server stopped")
}

// warnOrphans logs stored phases that the loaded templates do not cover.
// Their rows are kept untouched.
func warnOrphans(book *tracker.Book) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orphans, err := book.Orphans(ctx)
	if err != nil {
		log.Printf("Warning: could not list stored phases: %v", err)
		return
	}
	for _, key := range orphans {
		log.Printf("Warning: stored phase %q has no template and is ignored", key)
	}
}

func loadTemplates(dir, presets string) (*tracker.TemplateSet, error) {
	f := factory.NewTemplateFactory()
	if dir != "" {
		return f.LoadTemplateSet(dir)
	}
	var ids []string
	for _, id := range strings.Split(presets, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return f.PresetSet(ids...)
}

func lossPolicy(daily, total string) (tradelog.LossPolicy, error) {
	d, err := decimal.NewFromString(daily)
	if err != nil {
		return tradelog.LossPolicy{}, fmt.Errorf("daily loss %q: %w", daily, err)
	}
	t, err := decimal.NewFromString(total)
	if err != nil {
		return tradelog.LossPolicy{}, fmt.Errorf("max loss %q: %w", total, err)
	}
	p := tradelog.LossPolicy{DailyLossLimit: d, MaxTotalLoss: t}
	return p, p.Validate()
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
