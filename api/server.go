/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging (logrus, JSON)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/contracts/*        Contract lifecycle and schedule changes
  /api/obligations/*      Schedule queries, settlement, postponement
  /api/supply-payments/*  Owner payout reconciliation
  /api/expenses           Property expenses
  /api/settings           Grace period and late fee rate
  /api/scenarios/*        Demo scenarios
  /api/admin/*            Maintenance sweep

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new router with all routes configured.
// sweeper may be nil, in which case /api/admin/sweep is not mounted.
func NewRouter(h *Handler, sweeper *MaintenanceScheduler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", h.ListContracts)
			r.Post("/", h.CreateContract)
			r.Get("/{id}", h.GetContract)
			r.Put("/{id}", h.UpdateContract)
			r.Post("/{id}/activate", h.ActivateContract)
			r.Post("/{id}/terminate", h.TerminateContract)
			r.Post("/{id}/generate", h.GenerateSchedule)
			r.Get("/{id}/obligations", h.GetContractObligations)
			r.Post("/{id}/reschedule", h.RescheduleContract)
			r.Post("/{id}/renew", h.RenewContract)
		})

		r.Route("/obligations", func(r chi.Router) {
			r.Get("/", h.ListObligations)
			r.Get("/{id}", h.GetObligation)
			r.Post("/{id}/settle", h.SettleObligation)
			r.Post("/{id}/postpone", h.PostponeObligation)
		})

		r.Route("/supply-payments", func(r chi.Router) {
			r.Get("/{id}/reconciliation", h.GetReconciliation)
			r.Post("/{id}/reconciliation", h.ApplyReconciliation)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})

		if sweeper != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Post("/sweep", sweeper.TriggerSweep)
				r.Get("/sweep", sweeper.LastSweep)
			})
		}
	})

	return r
}

// requestLogger logs one line per request through logrus.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}
