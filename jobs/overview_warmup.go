package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/havenly/havenly-admin/internal/finance"
	"github.com/havenly/havenly-admin/internal/finance/store"
	jobmetrics "github.com/havenly/havenly-admin/internal/jobs"
)

const overviewWarmupMetric = "finance_overview_warmup"

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OverviewRefresher recomputes an overview and overwrites its cache entry.
type OverviewRefresher interface {
	Refresh(ctx context.Context, req finance.OverviewRequest) (finance.FinancialOverviewData, error)
}

// SnapshotWriter persists computed overviews.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, windowKey string, overview finance.FinancialOverviewData, keep int) (store.Snapshot, error)
}

// OverviewWarmupJob refreshes the cached finance overviews and snapshots them.
type OverviewWarmupJob struct {
	Service   OverviewRefresher
	Snapshots SnapshotWriter
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	// Windows are refreshed when the task payload names none.
	Windows []string
	// Retention caps the snapshots kept per window; zero keeps all.
	Retention     int
	WindowTimeout time.Duration
	clock         func() time.Time
}

// NewOverviewWarmupJob wires dependencies for the warmup handler.
func NewOverviewWarmupJob(svc OverviewRefresher, snapshots SnapshotWriter, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverviewWarmupJob {
	return &OverviewWarmupJob{
		Service:       svc,
		Snapshots:     snapshots,
		Logger:        logger,
		Metrics:       metrics,
		WindowTimeout: 20 * time.Second,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes overview warmup tasks. Every window is attempted; failures
// are joined so asynq retries the task.
func (j *OverviewWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("overview warmup: handler not configured")
	}
	var payload OverviewWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("overview warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	windows := payload.Windows
	if len(windows) == 0 {
		windows = j.Windows
	}

	tracker := j.metrics().Track(overviewWarmupMetric)

	logger := j.logger().With(slog.String("run_id", uuid.NewString()))
	start := j.now()
	logger.Info("starting overview warmup", slog.Any("windows", windows))

	var errs []error
	warmed := 0
	for _, token := range windows {
		req, err := finance.ParseOverviewWindow(token)
		if err != nil {
			logger.Warn("skip invalid window", slog.String("window", token), slog.Any("error", err))
			continue
		}
		if err := j.warmWindow(ctx, req); err != nil {
			logger.Error("warm window", slog.String("window", req.Key()), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", req.Key(), err))
			continue
		}
		warmed++
	}
	resultErr := errors.Join(errs...)

	logger.Info("completed overview warmup",
		slog.Int("windows", warmed),
		slog.Int("failed", len(errs)),
		slog.Duration("duration", j.now().Sub(start)))
	return tracker.End(resultErr)
}

func (j *OverviewWarmupJob) warmWindow(ctx context.Context, req finance.OverviewRequest) error {
	timeout := j.WindowTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	windowCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	overview, err := j.Service.Refresh(windowCtx, req)
	if err != nil {
		return err
	}
	if j.Snapshots == nil {
		return nil
	}
	_, err = j.Snapshots.SaveSnapshot(windowCtx, req.Key(), overview, j.Retention)
	if errors.Is(err, store.ErrSnapshotExists) {
		return nil
	}
	return err
}

func (j *OverviewWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFinanceOverviewWarmup))
	}
	return slog.Default().With(slog.String("job", TaskFinanceOverviewWarmup))
}

func (j *OverviewWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OverviewWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
