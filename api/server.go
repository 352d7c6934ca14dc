/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the widget frontend

ROUTE GROUPS:
  /api/phases/*      Phase progress and day edits
  /api/progress      Global progress
  /api/templates     Phase templates
  /api/trades/*      Trade log and loss-limit evaluation
  /api/scenarios/*   Demo scenarios
  /healthz           Readiness of every phase
  /*                 Static files (frontend) or an index page

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/phases", func(r chi.Router) {
			r.Get("/", h.ListPhases)
			r.Get("/{phase}", h.GetPhase)
			r.Get("/{phase}/sync", h.GetSyncStatus)
			r.Put("/{phase}/days/{day}", h.SetAchieved)
		})

		r.Get("/progress", h.GetProgress)
		r.Get("/templates", h.ListTemplates)

		r.Route("/trades", func(r chi.Router) {
			r.Get("/", h.ListTrades)
			r.Post("/", h.CreateTrade)
			r.Get("/stats", h.GetTradeStats)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	// Serve the built widget if present, else a small index page.
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(indexPage))
		})
	}

	return r
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>Phase Tracker</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Phase Tracker API</h1>
<p>No frontend build found in <code>web/dist</code>.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/phases">/api/phases</a> - Phases and global progress</li>
<li><a href="/api/progress">/api/progress</a> - Progress summary</li>
<li><a href="/api/templates">/api/templates</a> - Phase templates</li>
<li><a href="/api/trades/stats">/api/trades/stats</a> - Trade statistics</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`
