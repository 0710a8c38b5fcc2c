package financehttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/havenly/havenly-admin/internal/platform/httpx"
	"github.com/havenly/havenly-admin/internal/shared"
)

// MountRoutes registers finance endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, r, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "cache bump rate exceeded")
		}),
	)

	r.Route("/finance", func(fr chi.Router) {
		fr.Get("/overview", h.handleOverview)
		fr.Get("/chart", h.handleChart)
		fr.Get("/transactions", h.handleTransactions)
		fr.Get("/snapshots/latest", h.handleLatestSnapshot)
		fr.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Post("/cache/bump", h.handleCacheBump)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		if user := strings.TrimSpace(p.UserID); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
