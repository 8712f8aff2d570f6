package memory

import (
	"context"
	"sort"
	"sync"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TrackedEvent // keyed by event_id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.TrackedEvent),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(_ context.Context, e *domain.TrackedEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	s.data[e.EventID] = &copy
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(_ context.Context, events []*domain.TrackedEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.EventID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[e.EventID] = struct{}{}
	}

	for _, e := range events {
		copy := *e
		s.data[e.EventID] = &copy
	}
	return nil
}

// GetByTimeRange retrieves events with start <= timestamp < end, ordered by (timestamp, event_id).
func (s *EventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TrackedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrackedEvent
	for _, e := range s.data {
		ts := e.Timestamp.UnixMilli()
		if ts >= start && ts < end {
			copy := *e
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].Timestamp.UnixMilli(), result[j].Timestamp.UnixMilli()
		if ti != tj {
			return ti < tj
		}
		return result[i].EventID < result[j].EventID
	})
	return result, nil
}

// ListRecent retrieves up to limit events for platform, newest first.
func (s *EventStore) ListRecent(_ context.Context, platform string, limit int) ([]*domain.TrackedEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrackedEvent
	for _, e := range s.data {
		if platform != "" && e.Platform != platform {
			continue
		}
		copy := *e
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].Timestamp.UnixMilli(), result[j].Timestamp.UnixMilli()
		if ti != tj {
			return ti > tj
		}
		return result[i].EventID > result[j].EventID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.EventStore = (*EventStore)(nil)
