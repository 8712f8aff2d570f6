package memory

import (
	"context"
	"sort"
	"sync"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

// PlatformStatusStore is an in-memory implementation of storage.PlatformStatusStore.
type PlatformStatusStore struct {
	mu   sync.RWMutex
	data map[string]domain.PlatformStatus
}

// NewPlatformStatusStore creates a new in-memory platform status store.
func NewPlatformStatusStore() *PlatformStatusStore {
	return &PlatformStatusStore{data: make(map[string]domain.PlatformStatus)}
}

// Upsert replaces the status of s.Platform.
func (s *PlatformStatusStore) Upsert(_ context.Context, st *domain.PlatformStatus) error {
	if st == nil || st.Platform == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[st.Platform] = *st
	return nil
}

// GetAll returns every known status ordered by platform.
func (s *PlatformStatusStore) GetAll(_ context.Context) ([]*domain.PlatformStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PlatformStatus, 0, len(s.data))
	for _, st := range s.data {
		copy := st
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Platform < result[j].Platform
	})
	return result, nil
}

var _ storage.PlatformStatusStore = (*PlatformStatusStore)(nil)
