package financehttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenly/havenly-admin/internal/finance"
	"github.com/havenly/havenly-admin/internal/finance/store"
	"github.com/havenly/havenly-admin/internal/platform/httpx"
	"github.com/havenly/havenly-admin/internal/shared"
	_ "github.com/havenly/havenly-admin/testing"
)

type stubService struct {
	overview    finance.FinancialOverviewData
	lastReq     finance.OverviewRequest
	lastChart   finance.ChartRequest
	lastLimit   int
	err         error
	bumps       int
	chartPoints []finance.ChartDataPoint
}

func (s *stubService) Overview(ctx context.Context, req finance.OverviewRequest) (finance.FinancialOverviewData, error) {
	s.lastReq = req
	return s.overview, s.err
}

func (s *stubService) Chart(ctx context.Context, req finance.ChartRequest) ([]finance.ChartDataPoint, error) {
	s.lastChart = req
	return s.chartPoints, s.err
}

func (s *stubService) Transactions(ctx context.Context, limit int) ([]finance.Transaction, error) {
	s.lastLimit = limit
	return []finance.Transaction{}, s.err
}

func (s *stubService) InvalidateCache(ctx context.Context) error {
	s.bumps++
	return s.err
}

type stubSnapshots struct {
	snap    store.Snapshot
	err     error
	lastKey string
}

func (s *stubSnapshots) LatestSnapshot(ctx context.Context, windowKey string) (store.Snapshot, error) {
	s.lastKey = windowKey
	return s.snap, s.err
}

type stubWarmup struct {
	calls int
	err   error
}

func (s *stubWarmup) EnqueueOverviewWarmup(ctx context.Context, windows ...string) (*asynq.TaskInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func newTestRouter(t *testing.T, svc OverviewService, snaps SnapshotReader) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, svc, snaps).MountRoutes(r)
	return r
}

func doRequest(router http.Handler, method, target string, p *shared.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

var (
	financeUser = &shared.Principal{UserID: "u-fin", Roles: []string{shared.RoleFinance}}
	adminUser   = &shared.Principal{UserID: "u-admin", Roles: []string{shared.RoleAdmin}}
)

func TestOverviewRequiresPrincipal(t *testing.T) {
	router := newTestRouter(t, &stubService{}, nil)
	rr := doRequest(router, http.MethodGet, "/finance/overview", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(router, http.MethodGet, "/finance/overview", &shared.Principal{UserID: "u1", Roles: []string{"tenant"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestOverviewPassesWindow(t *testing.T) {
	svc := &stubService{overview: finance.FinancialOverviewData{
		GeneratedAt:    time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
		RevenueMetrics: finance.RevenueMetrics{TotalRevenue: 100},
	}}
	router := newTestRouter(t, svc, nil)

	rr := doRequest(router, http.MethodGet, "/finance/overview?period=30d&limit=20", financeUser)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, finance.OverviewRequest{Period: "30d", Limit: 20}, svc.lastReq)

	var body finance.FinancialOverviewData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 100.0, body.RevenueMetrics.TotalRevenue)
}

func TestOverviewRejectsBadFilters(t *testing.T) {
	router := newTestRouter(t, &stubService{}, nil)
	for _, target := range []string{
		"/finance/overview?period=2w",
		"/finance/overview?period=7d&months=3",
		"/finance/overview?months=0",
		"/finance/overview?months=48",
		"/finance/overview?limit=abc",
		"/finance/overview?limit=501",
	} {
		rr := doRequest(router, http.MethodGet, target, financeUser)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"), target)
	}
}

func TestOverviewMapsServiceErrors(t *testing.T) {
	svc := &stubService{err: &finance.AggregationError{Op: "validate", Err: finance.ErrInvalidRecord}}
	router := newTestRouter(t, svc, nil)
	rr := doRequest(router, http.MethodGet, "/finance/overview", financeUser)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	svc.err = fmt.Errorf("finance: list payments: %w", context.DeadlineExceeded)
	rr = doRequest(router, http.MethodGet, "/finance/overview", financeUser)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	svc.err = fmt.Errorf("connection refused")
	rr = doRequest(router, http.MethodGet, "/finance/overview", financeUser)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Empty(t, body.Detail)
}

func TestChartDefaultsToMonths(t *testing.T) {
	svc := &stubService{chartPoints: []finance.ChartDataPoint{{Label: "Mar 2025"}}}
	router := newTestRouter(t, svc, nil)

	rr := doRequest(router, http.MethodGet, "/finance/chart", financeUser)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, finance.ChartRequest{Months: finance.DefaultChartMonths}, svc.lastChart)

	rr = doRequest(router, http.MethodGet, "/finance/chart?period=7d&mode=proxy", financeUser)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, finance.ChartRequest{Period: "7d", Mode: finance.SubscriptionsProxy}, svc.lastChart)

	rr = doRequest(router, http.MethodGet, "/finance/chart?mode=weekly", financeUser)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransactionsDefaultLimit(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc, nil)
	rr := doRequest(router, http.MethodGet, "/finance/transactions", financeUser)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, finance.DefaultTransactionLimit, svc.lastLimit)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestLatestSnapshot(t *testing.T) {
	snaps := &stubSnapshots{snap: store.Snapshot{WindowKey: "30d:limit-50"}}
	router := newTestRouter(t, &stubService{}, snaps)

	rr := doRequest(router, http.MethodGet, "/finance/snapshots/latest?key=30d", financeUser)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "30d:limit-50", snaps.lastKey)

	rr = doRequest(router, http.MethodGet, "/finance/snapshots/latest", financeUser)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "months-6:limit-50", snaps.lastKey)

	rr = doRequest(router, http.MethodGet, "/finance/snapshots/latest?key=weekly", financeUser)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	snaps.err = store.ErrSnapshotNotFound
	rr = doRequest(router, http.MethodGet, "/finance/snapshots/latest?key=30d", financeUser)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLatestSnapshotWithoutStore(t *testing.T) {
	router := newTestRouter(t, &stubService{}, nil)
	rr := doRequest(router, http.MethodGet, "/finance/snapshots/latest", financeUser)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCacheBumpRequiresAdmin(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc, nil)

	rr := doRequest(router, http.MethodPost, "/finance/cache/bump", financeUser)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Zero(t, svc.bumps)

	rr = doRequest(router, http.MethodPost, "/finance/cache/bump", adminUser)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, svc.bumps)
}

func TestCacheBumpEnqueuesWarmup(t *testing.T) {
	svc := &stubService{}
	warmup := &stubWarmup{}
	h := NewHandler(nil, svc, nil)
	h.WithWarmup(warmup)
	router := chi.NewRouter()
	h.MountRoutes(router)

	rr := doRequest(router, http.MethodPost, "/finance/cache/bump", adminUser)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, svc.bumps)
	assert.Equal(t, 1, warmup.calls)

	warmup.err = errors.New("redis down")
	rr = doRequest(router, http.MethodPost, "/finance/cache/bump", adminUser)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 2, warmup.calls)

	svc.err = errors.New("bump failed")
	rr = doRequest(router, http.MethodPost, "/finance/cache/bump", adminUser)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 2, warmup.calls)
}

func TestCacheBumpIsRateLimited(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc, nil)
	var last int
	for i := 0; i < 11; i++ {
		last = doRequest(router, http.MethodPost, "/finance/cache/bump", adminUser).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Equal(t, 10, svc.bumps)
}
