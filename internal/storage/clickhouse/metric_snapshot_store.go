package clickhouse

import (
	"context"
	"fmt"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

// MetricSnapshotStore implements storage.MetricSnapshotStore using ClickHouse.
type MetricSnapshotStore struct {
	conn *Conn
}

// NewMetricSnapshotStore creates a new MetricSnapshotStore.
func NewMetricSnapshotStore(conn *Conn) *MetricSnapshotStore {
	return &MetricSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MetricSnapshotStore = (*MetricSnapshotStore)(nil)

// InsertBulk adds snapshots in one batch. ReplacingMergeTree would silently
// replace existing rows, so duplicates are checked explicitly first.
func (s *MetricSnapshotStore) InsertBulk(ctx context.Context, snaps []*domain.MetricSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(snaps))
	for _, snap := range snaps {
		if snap == nil || snap.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := snap.RunID + "|" + string(snap.Metric.ModelKind) + "|" + snap.Metric.Channel
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	for _, snap := range snaps {
		exists, err := s.exists(ctx, snap.RunID, snap.Metric.ModelKind, snap.Metric.Channel)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO metric_snapshots (
			run_id, model_kind, channel,
			window_start, window_end, computed_at,
			attributed_revenue, attributed_conversions, spend, roas
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		m := snap.Metric
		err = batch.Append(
			snap.RunID, string(m.ModelKind), m.Channel,
			snap.WindowStart, snap.WindowEnd, snap.ComputedAt,
			m.AttributedRevenue, m.AttributedConversions, m.Spend, m.ROAS,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run ordered by (model_kind, channel).
func (s *MetricSnapshotStore) GetByRunID(ctx context.Context, runID string) ([]*domain.MetricSnapshot, error) {
	query := `
		SELECT
			run_id, model_kind, channel,
			window_start, window_end, computed_at,
			attributed_revenue, attributed_conversions, spend, roas
		FROM metric_snapshots FINAL
		WHERE run_id = ?
		ORDER BY model_kind ASC, channel ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	var result []*domain.MetricSnapshot
	for rows.Next() {
		var snap domain.MetricSnapshot
		var kind string
		err := rows.Scan(
			&snap.RunID, &kind, &snap.Metric.Channel,
			&snap.WindowStart, &snap.WindowEnd, &snap.ComputedAt,
			&snap.Metric.AttributedRevenue, &snap.Metric.AttributedConversions, &snap.Metric.Spend, &snap.Metric.ROAS,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Metric.ModelKind = domain.ModelKind(kind)
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}

func (s *MetricSnapshotStore) exists(ctx context.Context, runID string, kind domain.ModelKind, channel string) (bool, error) {
	query := `
		SELECT count(*) FROM metric_snapshots FINAL
		WHERE run_id = ? AND model_kind = ? AND channel = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID, string(kind), channel).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
