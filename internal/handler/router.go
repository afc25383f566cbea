package handler

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"
	"github.com/boddenberg/presupuesto-bff/internal/render"
	"github.com/boddenberg/presupuesto-bff/internal/service"
	"github.com/boddenberg/presupuesto-bff/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger is a dependency /readyz can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router serves.
type Deps struct {
	Auth      *service.AuthService
	Dashboard *service.Dashboard
	Submitter *service.Submitter
	Tracker   *service.LoadTracker
	Sessions  *session.Store
	Pages     *render.Pages
	Metrics   *observability.Metrics
	// Static holds the css served under /static/. Optional.
	Static fs.FS
	// Breaker is the finance API circuit breaker, reported by /healthz. Optional.
	Breaker *gobreaker.CircuitBreaker
	// Outbox is probed by /readyz when set.
	Outbox Pinger
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps, logger *zap.Logger) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d))
	r.Get("/readyz", readyzHandler(d))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	if d.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(d.Static))))
	}

	// --- Pages ---
	r.Get("/", loginPageHandler(d, logger))
	r.Post("/login", loginHandler(d, logger))
	r.Post("/logout", logoutHandler(d))

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(d.Sessions, false, logger))
		r.Get("/dashboard", dashboardPageHandler(d, logger))
		r.Post("/ingresos", submitPageHandler(d, domain.KindIncome, logger))
		r.Post("/gastos", submitPageHandler(d, domain.KindExpense, logger))
	})

	// --- JSON API ---
	r.Route("/api", func(r chi.Router) {
		r.Use(RequireSession(d.Sessions, true, logger))
		r.Get("/dashboard", apiDashboardHandler(d, logger))
		r.Get("/categorias", apiCategoriesHandler(d))
		r.Post("/ingresos", apiSubmitHandler(d, domain.KindIncome, logger))
		r.Post("/gastos", apiSubmitHandler(d, domain.KindExpense, logger))
		r.Get("/metrics/fallbacks", fallbackMetricsHandler(d))
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "presupuesto-bff", Status: "healthy", LastChecked: now},
		}

		if d.Breaker != nil {
			status := "healthy"
			if st := d.Breaker.State(); st != gobreaker.StateClosed {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "finance-api", Status: status, Detail: "circuit " + d.Breaker.State().String(), LastChecked: now,
			})
		}

		if d.Tracker != nil && d.Tracker.InFlight() > 0 {
			services[0].Detail = "dashboard loads in flight"
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Outbox != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Outbox.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func fallbackMetricsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Metrics.Snapshot())
	}
}
