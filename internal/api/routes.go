package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/marketpulse/campaignhub/internal/auth"
)

// SetupRoutes configures the full HTTP surface. Health and auth endpoints
// are open; everything under /api requires a session.
func SetupRoutes(h *Handlers, authManager *auth.Manager, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	r.Route("/api", func(r chi.Router) {
		if authManager != nil {
			r.Use(authManager.Middleware)
		}

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
			r.Put("/{id}", h.UpdateCustomer)
			r.Delete("/{id}", h.DeleteCustomer)
			r.Post("/{id}/opt-out", h.OptOutCustomer)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Get("/{id}", h.GetCampaign)
			r.Put("/{id}", h.UpdateCampaign)
			r.Delete("/{id}", h.DeleteCampaign)
			r.Put("/{id}/status", h.UpdateCampaignStatus)
			r.Post("/{id}/dispatch", h.DispatchCampaign)
			r.Get("/{id}/logs", h.ListCampaignLogs)
		})

		r.Route("/ab-tests", func(r chi.Router) {
			r.Get("/", h.ListABTests)
			r.Post("/", h.CreateABTest)
			r.Get("/{id}", h.GetABTest)
			r.Delete("/{id}", h.DeleteABTest)
			r.Post("/{id}/start", h.StartABTest)
			r.Post("/{id}/stop", h.StopABTest)
			r.Get("/{id}/results", h.ABTestResults)
		})

		r.Post("/messages/send", h.SendMessages)
		r.Get("/analytics/summary", h.AnalyticsSummary)
		r.Post("/chat", h.ChatMessage)
		r.Post("/seed", h.SeedCustomers)
		r.Post("/templates/preview", h.PreviewTemplate)
	})

	return r
}
