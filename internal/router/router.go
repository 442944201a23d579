package router

import (
	"net/http"

	"bdo-market-watch/internal/handler"
	"bdo-market-watch/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	ItemHandler    *handler.ItemHandler
	WatcherHandler *handler.WatcherHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// Static files (dashboard)
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static/index.html", http.StatusMovedPermanently)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.ItemHandler != nil {
			r.Route("/items", func(r chi.Router) {
				r.Get("/", cfg.ItemHandler.ListItems)
				r.Post("/", cfg.ItemHandler.TrackItem)
				r.Delete("/{item_id}", cfg.ItemHandler.UntrackItem)
				r.Get("/{item_id}/{sid}", cfg.ItemHandler.GetItem)
				r.Delete("/{item_id}/{sid}", cfg.ItemHandler.UntrackVariant)
			})
		}

		if cfg.WatcherHandler != nil {
			r.Route("/watcher", func(r chi.Router) {
				r.Post("/check", cfg.WatcherHandler.CheckNow)
				r.Get("/status", cfg.WatcherHandler.Status)
			})
		}
	})

	return r
}
