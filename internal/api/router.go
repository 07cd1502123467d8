package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/slatedeck/slatedeck/internal/api/alerts"
	"github.com/slatedeck/slatedeck/internal/api/collections"
	"github.com/slatedeck/slatedeck/internal/api/dashboards"
	"github.com/slatedeck/slatedeck/internal/api/middleware"
	"github.com/slatedeck/slatedeck/internal/api/questions"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.Recoverer)

	alertHandler := alerts.NewHandler(s.storage, s.runner)
	questionHandler := questions.NewHandler(s.storage)
	dashboardHandler := dashboards.NewHandler(s.storage)
	collectionHandler := collections.NewHandler(s.storage)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ServiceToken(s.config.ServiceToken))

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertHandler.List)
			r.Post("/", alertHandler.Create)
			r.Get("/logs", alertHandler.Logs)

			// External schedulers hit this endpoint on a cron; it
			// also answers CORS preflights for browser callers.
			r.Get("/check", alertHandler.Check)
			r.Post("/check", alertHandler.Check)
			r.Options("/check", alertHandler.Check)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", alertHandler.GetByID)
				r.Put("/", alertHandler.Update)
				r.Delete("/", alertHandler.Delete)
				r.Put("/active", alertHandler.SetActive)
				r.Get("/logs", alertHandler.Logs)
			})
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questionHandler.List)
			r.Post("/", questionHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", questionHandler.GetByID)
				r.Put("/", questionHandler.Update)
				r.Delete("/", questionHandler.Delete)
			})
		})

		r.Route("/dashboards", func(r chi.Router) {
			r.Get("/", dashboardHandler.List)
			r.Post("/", dashboardHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", dashboardHandler.GetByID)
				r.Delete("/", dashboardHandler.Delete)
				r.Post("/sections", dashboardHandler.AddSection)
				r.Delete("/sections/{sectionID}", dashboardHandler.DeleteSection)
				r.Post("/widgets", dashboardHandler.AddWidget)
				r.Delete("/widgets/{widgetID}", dashboardHandler.DeleteWidget)
			})
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", collectionHandler.List)
			r.Post("/", collectionHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", collectionHandler.GetByID)
				r.Put("/", collectionHandler.Update)
				r.Delete("/", collectionHandler.Delete)
				r.Post("/members", collectionHandler.AddMember)
				r.Get("/questions", collectionHandler.ListQuestions)
				r.Delete("/questions/{questionID}", collectionHandler.RemoveQuestion)
				r.Get("/dashboards", collectionHandler.ListDashboards)
				r.Delete("/dashboards/{dashboardID}", collectionHandler.RemoveDashboard)
			})
		})
	})

	// Health checks (public, no auth)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}
