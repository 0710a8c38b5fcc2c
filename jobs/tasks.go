package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinanceOverviewWarmup recomputes cached overviews and persists snapshots.
	TaskFinanceOverviewWarmup = "finance:overview:warmup"
)

// OverviewWarmupPayload lists the overview windows to refresh, e.g. "months-6"
// or "30d". An empty list falls back to the job's configured windows.
type OverviewWarmupPayload struct {
	Windows []string `json:"windows,omitempty"`
}

// NewOverviewWarmupTask constructs an Asynq task.
func NewOverviewWarmupTask(payload OverviewWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode warmup payload: %w", err)
	}
	return asynq.NewTask(TaskFinanceOverviewWarmup, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
