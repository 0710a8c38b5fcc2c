package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/havenly/havenly-admin/internal/finance"
	"github.com/havenly/havenly-admin/internal/platform/db"
)

var (
	// ErrSnapshotExists indicates a snapshot for the same window and instant.
	ErrSnapshotExists = errors.New("finance/store: snapshot already exists")
	// ErrSnapshotNotFound indicates no snapshot was persisted for a window.
	ErrSnapshotNotFound = errors.New("finance/store: snapshot not found")
)

// Snapshot is a persisted overview for one window key.
type Snapshot struct {
	ID          uuid.UUID                     `json:"id"`
	WindowKey   string                        `json:"window_key"`
	GeneratedAt time.Time                     `json:"generated_at"`
	CreatedAt   time.Time                     `json:"created_at"`
	Overview    finance.FinancialOverviewData `json:"overview"`
}

// SaveSnapshot persists overview under windowKey and prunes snapshots of the
// same window beyond keep. A non-positive keep retains everything.
func (s *Store) SaveSnapshot(ctx context.Context, windowKey string, overview finance.FinancialOverviewData, keep int) (Snapshot, error) {
	if windowKey == "" {
		return Snapshot{}, errors.New("finance/store: window key required")
	}
	payload, err := json.Marshal(overview)
	if err != nil {
		return Snapshot{}, fmt.Errorf("finance/store: encode snapshot: %w", err)
	}
	snap := Snapshot{
		ID:          uuid.New(),
		WindowKey:   windowKey,
		GeneratedAt: overview.GeneratedAt,
		Overview:    overview,
	}
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO finance_snapshots (id, window_key, generated_at, payload)
VALUES ($1, $2, $3, $4) RETURNING created_at`, snap.ID, windowKey, snap.GeneratedAt, payload).Scan(&snap.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrSnapshotExists
			}
			return fmt.Errorf("finance/store: insert snapshot: %w", err)
		}
		if keep <= 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `DELETE FROM finance_snapshots
WHERE window_key = $1 AND id NOT IN (
    SELECT id FROM finance_snapshots WHERE window_key = $1 ORDER BY generated_at DESC LIMIT $2
)`, windowKey, keep)
		if err != nil {
			return fmt.Errorf("finance/store: prune snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// LatestSnapshot returns the newest snapshot for windowKey.
func (s *Store) LatestSnapshot(ctx context.Context, windowKey string) (Snapshot, error) {
	var (
		snap    Snapshot
		payload []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT id, window_key, generated_at, created_at, payload
FROM finance_snapshots WHERE window_key = $1 ORDER BY generated_at DESC LIMIT 1`, windowKey).
		Scan(&snap.ID, &snap.WindowKey, &snap.GeneratedAt, &snap.CreatedAt, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("finance/store: latest snapshot: %w", err)
	}
	if err := json.Unmarshal(payload, &snap.Overview); err != nil {
		return Snapshot{}, fmt.Errorf("finance/store: decode snapshot: %w", err)
	}
	return snap, nil
}
