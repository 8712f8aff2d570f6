package storage

import (
	"context"
	"time"

	"marketing-attribution/internal/domain"
)

// EventStore provides access to tracked_events storage. Append-only.
type EventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, e *domain.TrackedEvent) error

	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.TrackedEvent) error

	// GetByTimeRange retrieves events with start <= timestamp < end (epoch ms),
	// ordered by (timestamp ASC, event_id ASC).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TrackedEvent, error)

	// ListRecent retrieves up to limit events, newest first. An empty platform
	// matches every platform.
	ListRecent(ctx context.Context, platform string, limit int) ([]*domain.TrackedEvent, error)
}

// SpendStore provides access to channel_spend storage.
// Spend for a (channel, campaign, day) may be restated, so writes are upserts.
type SpendStore interface {
	// Upsert sets the spend of one (channel, campaign_id, day).
	Upsert(ctx context.Context, r *domain.SpendRecord) error

	// SumByChannel totals spend per channel for days in [fromDay, toDay] (YYYY-MM-DD).
	SumByChannel(ctx context.Context, fromDay, toDay string) (map[string]float64, error)

	// SumByCampaign totals spend per campaign for days in [fromDay, toDay].
	// Records without a campaign are not included.
	SumByCampaign(ctx context.Context, fromDay, toDay string) (map[string]float64, error)
}

// PlatformStatusStore holds the latest connection status per platform.
type PlatformStatusStore interface {
	// Upsert replaces the status of s.Platform.
	Upsert(ctx context.Context, s *domain.PlatformStatus) error

	// GetAll returns every known status ordered by platform.
	GetAll(ctx context.Context) ([]*domain.PlatformStatus, error)
}

// MetricSnapshotStore provides access to metric_snapshots storage. Append-only.
type MetricSnapshotStore interface {
	// InsertBulk adds snapshots of one or more runs.
	// Returns ErrDuplicateKey if any (run_id, model_kind, channel) exists.
	InsertBulk(ctx context.Context, snaps []*domain.MetricSnapshot) error

	// GetByRunID retrieves a run ordered by (model_kind, channel).
	// Returns ErrNotFound if the run does not exist.
	GetByRunID(ctx context.Context, runID string) ([]*domain.MetricSnapshot, error)
}

// DayRange converts the half-open window [from, to) into the inclusive
// UTC day range used by SpendStore.
func DayRange(from, to time.Time) (string, string) {
	last := to.Add(-time.Millisecond)
	if last.Before(from) {
		last = from
	}
	return from.UTC().Format(time.DateOnly), last.UTC().Format(time.DateOnly)
}
