/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, attached to every log line
  2. Logging:    zap access log
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Request durations by route pattern
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/resorts/*    Resort data, room types, timelines, import
  /api/quotes/*     Quotes, aggregate quotes, comparisons, history
  /api/profiles/*   Saved settings
  /api/health       Liveness
  /metrics          Prometheus

SECURITY NOTE:
  No authentication middleware. All endpoints are public, including
  import and reset.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/stay-engine/logging"
)

// NewRouter creates a new router with all routes configured. An empty
// corsOrigins allows every origin.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: len(corsOrigins) > 0,
		MaxAge:           300,
	}))

	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/export", h.ExportResorts)
		r.Post("/reset", h.ResetDatabase)

		// Resort routes
		r.Route("/resorts", func(r chi.Router) {
			r.Get("/", h.ListResorts)
			r.Post("/import", h.ImportResorts)
			r.Get("/{id}", h.GetResort)
			r.Delete("/{id}", h.DeleteResort)
			r.Get("/{id}/room-types", h.GetRoomTypes)
			r.Get("/{id}/timeline/{year}", h.GetTimeline)
		})

		// Quote routes
		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", h.ListQuotes)
			r.Post("/", h.CreateQuote)
			r.Post("/all-room-types", h.QuoteAllRoomTypes)
			r.Post("/compare", h.CompareQuotes)
			r.Get("/{id}", h.GetQuote)
		})

		// Profile routes
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", h.ListProfiles)
			r.Post("/", h.CreateProfile)
			r.Get("/{id}", h.GetProfile)
			r.Delete("/{id}", h.DeleteProfile)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Stay Cost Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Stay Cost Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/resorts">/api/resorts</a> - List resorts</li>
<li><a href="/api/quotes">/api/quotes</a> - Recent quotes</li>
<li><a href="/api/profiles">/api/profiles</a> - Saved settings</li>
<li><a href="/metrics">/metrics</a> - Metrics</li>
</ul>
</body>
</html>`))
	})

	return r
}
