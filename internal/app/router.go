package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	financehttp "github.com/havenly/havenly-admin/internal/finance/http"
	"github.com/havenly/havenly-admin/internal/observability"
	"github.com/havenly/havenly-admin/internal/platform/httpx"
	"github.com/havenly/havenly-admin/jobs"
)

// HealthCheck probes a dependency such as Postgres or Redis.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	FinanceHandler *financehttp.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
	HealthChecks   map[string]HealthCheck
}

// NewRouter constructs the chi.Router with admin API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler(params.HealthChecks))

	if params.FinanceHandler != nil {
		params.FinanceHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every check concurrently with a shared two second budget.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httpx.JSON(w, http.StatusOK, healthStatus{Status: "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		outcomes := make([]error, len(names))
		var g errgroup.Group
		for i, name := range names {
			check := checks[name]
			g.Go(func() error {
				outcomes[i] = check(ctx)
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		body := healthStatus{Status: "ok", Checks: results}
		for i, name := range names {
			if outcomes[i] != nil {
				results[name] = "down"
				status = http.StatusServiceUnavailable
				body.Status = "degraded"
				continue
			}
			results[name] = "up"
		}
		httpx.JSON(w, status, body)
	}
}
