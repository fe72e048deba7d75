package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Propgic/internal/analysis"
	"github.com/MikeSquared-Agency/Propgic/internal/scoring"
	"github.com/MikeSquared-Agency/Propgic/internal/store"
)

func NewRouter(s store.Store, runner *analysis.Runner, engine *scoring.Engine, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	analyses := NewAnalysesHandler(s, runner, engine)
	scorer := NewScoringHandler(engine)
	admin := NewAdminHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/analyses", analyses.List)
		r.Post("/analyses", analyses.Create)
		r.Post("/analyses/by-url", analyses.CreateByURL)
		r.Get("/analyses/type/{analyserType}", analyses.ListByType)
		r.Get("/analyses/{id}", analyses.Get)
		r.Put("/analyses/{id}", analyses.Update)
		r.Get("/analyses/{id}/events", analyses.Events)
		r.Post("/analyses/{id}/run", analyses.Run)

		r.Post("/scoring/evaluate", scorer.Evaluate)
		r.Get("/scoring/profiles", scorer.Profiles)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Delete("/analyses/{id}", analyses.Delete)
			r.Get("/stats", admin.Stats)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
