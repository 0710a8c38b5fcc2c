package financehttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/havenly/havenly-admin/internal/finance"
	"github.com/havenly/havenly-admin/internal/finance/store"
	"github.com/havenly/havenly-admin/internal/platform/httpx"
	"github.com/havenly/havenly-admin/internal/shared"
)

const defaultRequestTimeout = 5 * time.Second

// OverviewService defines the finance data contract used by the handler.
type OverviewService interface {
	Overview(ctx context.Context, req finance.OverviewRequest) (finance.FinancialOverviewData, error)
	Chart(ctx context.Context, req finance.ChartRequest) ([]finance.ChartDataPoint, error)
	Transactions(ctx context.Context, limit int) ([]finance.Transaction, error)
	InvalidateCache(ctx context.Context) error
}

// SnapshotReader exposes persisted overview snapshots.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, windowKey string) (store.Snapshot, error)
}

// WarmupScheduler queues an overview warmup. No windows means the worker's
// configured defaults.
type WarmupScheduler interface {
	EnqueueOverviewWarmup(ctx context.Context, windows ...string) (*asynq.TaskInfo, error)
}

// Handler serves the finance overview API.
type Handler struct {
	logger    *slog.Logger
	service   OverviewService
	snapshots SnapshotReader
	warmup    WarmupScheduler
	validate  *validator.Validate
	timeout   time.Duration
}

// NewHandler constructs the finance HTTP handler. snapshots may be nil, in
// which case the snapshot endpoint reports the store as unavailable.
func NewHandler(logger *slog.Logger, service OverviewService, snapshots SnapshotReader) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		snapshots: snapshots,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		timeout:   defaultRequestTimeout,
	}
}

// WithTimeout overrides the per-request deadline.
func (h *Handler) WithTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

// WithWarmup refills the cache in the background after every cache bump.
func (h *Handler) WithWarmup(s WarmupScheduler) {
	h.warmup = s
}

// windowQuery carries the chart window filters shared by every read endpoint.
type windowQuery struct {
	Period string `validate:"omitempty,oneof=7d 30d 90d 1y,excluded_with=Months"`
	Months int    `validate:"omitempty,min=1,max=36"`
	Limit  int    `validate:"omitempty,min=1,max=500"`
	Mode   string `validate:"omitempty,oneof=count proxy"`
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.PermFinanceOverviewView) {
		return
	}
	q, err := h.parseWindow(r)
	if err != nil {
		h.respondError(w, r, "parse overview filters", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	out, err := h.service.Overview(ctx, finance.OverviewRequest{Period: q.Period, Months: q.Months, Limit: q.Limit})
	if err != nil {
		h.respondError(w, r, "load overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.PermFinanceOverviewView) {
		return
	}
	q, err := h.parseWindow(r)
	if err != nil {
		h.respondError(w, r, "parse chart filters", err)
		return
	}
	req := finance.ChartRequest{Period: q.Period, Months: q.Months, Mode: chartMode(q.Mode)}
	if req.Period == "" && req.Months == 0 {
		req.Months = finance.DefaultChartMonths
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	points, err := h.service.Chart(ctx, req)
	if err != nil {
		h.respondError(w, r, "load chart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.PermFinanceOverviewView) {
		return
	}
	q, err := h.parseWindow(r)
	if err != nil {
		h.respondError(w, r, "parse transaction filters", err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = finance.DefaultTransactionLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	txs, err := h.service.Transactions(ctx, limit)
	if err != nil {
		h.respondError(w, r, "load transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, txs)
}

func (h *Handler) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.PermFinanceOverviewView) {
		return
	}
	if h.snapshots == nil {
		h.respondError(w, r, "snapshot store", fmt.Errorf("snapshot store not configured: %w", httpx.ErrUnavailable))
		return
	}
	token := r.URL.Query().Get("key")
	if strings.TrimSpace(token) == "" {
		token = "months-" + strconv.Itoa(finance.DefaultChartMonths)
	}
	req, err := finance.ParseOverviewWindow(token)
	if err != nil {
		h.respondError(w, r, "parse snapshot key", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.snapshots.LatestSnapshot(ctx, req.Key())
	if err != nil {
		h.respondError(w, r, "load snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) handleCacheBump(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.PermFinanceCacheManage) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.service.InvalidateCache(ctx); err != nil {
		h.respondError(w, r, "bump cache", err)
		return
	}
	h.logger.Info("finance cache invalidated", slog.String("user_id", principalID(r)))
	if h.warmup != nil {
		info, err := h.warmup.EnqueueOverviewWarmup(ctx)
		if err != nil {
			h.logger.Warn("enqueue overview warmup", slog.Any("error", err))
		} else if info != nil {
			h.logger.Info("overview warmup enqueued", slog.String("task_id", info.ID))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, perm string) bool {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return false
	}
	if !p.Can(perm) {
		httpx.RespondError(w, r, fmt.Errorf("missing %s: %w", perm, httpx.ErrForbidden))
		return false
	}
	return true
}

func (h *Handler) parseWindow(r *http.Request) (windowQuery, error) {
	query := r.URL.Query()
	q := windowQuery{
		Period: strings.TrimSpace(query.Get("period")),
		Mode:   strings.ToLower(strings.TrimSpace(query.Get("mode"))),
	}
	var err error
	if q.Months, err = intParam(query.Get("months"), "months"); err != nil {
		return windowQuery{}, err
	}
	if q.Limit, err = intParam(query.Get("limit"), "limit"); err != nil {
		return windowQuery{}, err
	}
	if err := h.validate.Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
			}
			return windowQuery{}, fmt.Errorf("invalid %s: %w", strings.Join(fields, ", "), httpx.ErrValidation)
		}
		return windowQuery{}, err
	}
	return q, nil
}

func intParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, httpx.ErrValidation)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid %s (min): %w", name, httpx.ErrValidation)
	}
	return n, nil
}

func chartMode(mode string) finance.SubscriptionMode {
	switch mode {
	case "count":
		return finance.SubscriptionsCount
	case "proxy":
		return finance.SubscriptionsProxy
	default:
		return finance.SubscriptionsDefault
	}
}

// respondError translates domain errors into problem responses and logs
// anything that maps to a server error.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, finance.ErrInvalidPeriod), errors.Is(err, finance.ErrInvalidRecord):
		err = fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	case errors.Is(err, store.ErrSnapshotNotFound):
		err = fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
	}
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, r, err)
}

func principalID(r *http.Request) string {
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		return p.UserID
	}
	return ""
}
