package memory

import (
	"context"
	"sort"
	"sync"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

// MetricSnapshotStore is an in-memory implementation of storage.MetricSnapshotStore.
type MetricSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MetricSnapshot // keyed by run_id|model_kind|channel
}

// NewMetricSnapshotStore creates a new in-memory snapshot store.
func NewMetricSnapshotStore() *MetricSnapshotStore {
	return &MetricSnapshotStore{data: make(map[string]*domain.MetricSnapshot)}
}

func snapshotKey(s *domain.MetricSnapshot) string {
	return s.RunID + "|" + string(s.Metric.ModelKind) + "|" + s.Metric.Channel
}

// InsertBulk adds snapshots atomically. Fails entire batch on any duplicate.
func (s *MetricSnapshotStore) InsertBulk(_ context.Context, snaps []*domain.MetricSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(snaps))
	for _, snap := range snaps {
		if snap == nil || snap.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(snap)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, snap := range snaps {
		copy := *snap
		if snap.Metric.ROAS != nil {
			roas := *snap.Metric.ROAS
			copy.Metric.ROAS = &roas
		}
		s.data[snapshotKey(snap)] = &copy
	}
	return nil
}

// GetByRunID retrieves a run ordered by (model_kind, channel).
func (s *MetricSnapshotStore) GetByRunID(_ context.Context, runID string) ([]*domain.MetricSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MetricSnapshot
	for _, snap := range s.data {
		if snap.RunID == runID {
			copy := *snap
			result = append(result, &copy)
		}
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Metric.ModelKind != result[j].Metric.ModelKind {
			return result[i].Metric.ModelKind < result[j].Metric.ModelKind
		}
		return result[i].Metric.Channel < result[j].Metric.Channel
	})
	return result, nil
}

var _ storage.MetricSnapshotStore = (*MetricSnapshotStore)(nil)
