package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/api/middleware"
	"github.com/parley-chat/parley/internal/handlers"
)

// WSHandler serves the WebSocket upgrade endpoint. Satisfied by the hub.
type WSHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// NewRouter creates and configures the HTTP router. clientOrigin is the one
// cross-origin client URL allowed by CORS and the WebSocket origin check.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, ws WSHandler, clientOrigin string) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{clientOrigin},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// WebSocket transport
	r.Get("/ws", ws.ServeWS)

	// Query surface
	r.Route("/api", func(r chi.Router) {
		r.Get("/messages", h.GetMessages)
		r.Get("/users", h.GetUsers)
		r.Get("/stats", h.Stats)
	})

	return r
}
