package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"stockpilot-api/internal/handler"
	"stockpilot-api/internal/middleware"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	AnalyticsHandler *handler.AnalyticsHandler
	InsightHandler   *handler.InsightHandler
	AssistantHandler *handler.AssistantHandler
	SalesHandler     *handler.SalesHandler
	AuthHandler      *handler.AuthHandler
	AdminHandler     *handler.AdminHandler
	AuthMiddleware   func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Auth endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			// Analytics endpoints
			if cfg.AnalyticsHandler != nil {
				r.Route("/analytics", func(r chi.Router) {
					r.Get("/summary", cfg.AnalyticsHandler.Summary)
					r.Get("/report", cfg.AnalyticsHandler.Report)
				})
			}

			// Insight endpoints
			if cfg.InsightHandler != nil {
				r.Route("/insights", func(r chi.Router) {
					r.Get("/", cfg.InsightHandler.List)
					r.Post("/generate", cfg.InsightHandler.Generate)
					r.Post("/{insight_id}/read", cfg.InsightHandler.MarkRead)
				})
			}

			// Assistant endpoint
			if cfg.AssistantHandler != nil {
				r.Post("/assistant/query", cfg.AssistantHandler.Query)
			}

			// Sales and stock endpoints
			if cfg.SalesHandler != nil {
				r.Post("/sales", cfg.SalesHandler.CreateSale)
				r.Post("/inventory/{item_id}/adjust", cfg.SalesHandler.AdjustStock)
			}

			// Admin endpoints
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Post("/insights/run", cfg.AdminHandler.RunInsights)
				})
			}
		})
	})

	return r
}
