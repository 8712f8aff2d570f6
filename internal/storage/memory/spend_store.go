package memory

import (
	"context"
	"sync"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

type spendKey struct {
	channel, campaign, day string
}

// SpendStore is an in-memory implementation of storage.SpendStore.
type SpendStore struct {
	mu   sync.RWMutex
	data map[spendKey]float64
}

// NewSpendStore creates a new in-memory spend store.
func NewSpendStore() *SpendStore {
	return &SpendStore{data: make(map[spendKey]float64)}
}

// Upsert sets the spend of one (channel, campaign_id, day).
func (s *SpendStore) Upsert(_ context.Context, r *domain.SpendRecord) error {
	if r == nil || r.Channel == "" || r.Day == "" {
		return storage.ErrInvalidInput
	}
	if r.Amount < 0 {
		return domain.ErrNegativeValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[spendKey{r.Channel, r.CampaignID, r.Day}] = r.Amount
	return nil
}

// SumByChannel totals spend per channel for days in [fromDay, toDay].
func (s *SpendStore) SumByChannel(_ context.Context, fromDay, toDay string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64)
	for k, v := range s.data {
		if k.day >= fromDay && k.day <= toDay {
			out[k.channel] += v
		}
	}
	return out, nil
}

// SumByCampaign totals spend per campaign for days in [fromDay, toDay].
func (s *SpendStore) SumByCampaign(_ context.Context, fromDay, toDay string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64)
	for k, v := range s.data {
		if k.campaign != "" && k.day >= fromDay && k.day <= toDay {
			out[k.campaign] += v
		}
	}
	return out, nil
}

var _ storage.SpendStore = (*SpendStore)(nil)
