package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

// SpendStore implements storage.SpendStore using PostgreSQL.
type SpendStore struct {
	pool *Pool
}

// NewSpendStore creates a new SpendStore.
func NewSpendStore(pool *Pool) *SpendStore {
	return &SpendStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SpendStore = (*SpendStore)(nil)

// Upsert sets the spend of one (channel, campaign_id, day).
func (s *SpendStore) Upsert(ctx context.Context, r *domain.SpendRecord) error {
	if r == nil || r.Channel == "" || r.Day == "" {
		return storage.ErrInvalidInput
	}
	if r.Amount < 0 {
		return domain.ErrNegativeValue
	}

	query := `
		INSERT INTO channel_spend (channel, campaign_id, day, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (channel, campaign_id, day) DO UPDATE SET amount = EXCLUDED.amount
	`

	if _, err := s.pool.Exec(ctx, query, r.Channel, r.CampaignID, r.Day, r.Amount); err != nil {
		return fmt.Errorf("upsert channel spend: %w", err)
	}
	return nil
}

// SumByChannel totals spend per channel for days in [fromDay, toDay].
func (s *SpendStore) SumByChannel(ctx context.Context, fromDay, toDay string) (map[string]float64, error) {
	query := `
		SELECT channel, SUM(amount)
		FROM channel_spend
		WHERE day >= $1 AND day <= $2
		GROUP BY channel
	`

	rows, err := s.pool.Query(ctx, query, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("sum spend by channel: %w", err)
	}
	defer rows.Close()

	return scanSums(rows)
}

// SumByCampaign totals spend per campaign for days in [fromDay, toDay].
func (s *SpendStore) SumByCampaign(ctx context.Context, fromDay, toDay string) (map[string]float64, error) {
	query := `
		SELECT campaign_id, SUM(amount)
		FROM channel_spend
		WHERE campaign_id <> '' AND day >= $1 AND day <= $2
		GROUP BY campaign_id
	`

	rows, err := s.pool.Query(ctx, query, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("sum spend by campaign: %w", err)
	}
	defer rows.Close()

	return scanSums(rows)
}

func scanSums(rows pgx.Rows) (map[string]float64, error) {
	out := make(map[string]float64)
	for rows.Next() {
		var key string
		var sum float64
		if err := rows.Scan(&key, &sum); err != nil {
			return nil, fmt.Errorf("scan spend sum: %w", err)
		}
		out[key] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spend rows: %w", err)
	}
	return out, nil
}
