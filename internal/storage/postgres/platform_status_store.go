package postgres

import (
	"context"
	"fmt"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

// PlatformStatusStore implements storage.PlatformStatusStore using PostgreSQL.
type PlatformStatusStore struct {
	pool *Pool
}

// NewPlatformStatusStore creates a new PlatformStatusStore.
func NewPlatformStatusStore(pool *Pool) *PlatformStatusStore {
	return &PlatformStatusStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlatformStatusStore = (*PlatformStatusStore)(nil)

// Upsert replaces the status of st.Platform.
func (s *PlatformStatusStore) Upsert(ctx context.Context, st *domain.PlatformStatus) error {
	if st == nil || st.Platform == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO platform_status (platform, connected, checked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (platform) DO UPDATE
		SET connected = EXCLUDED.connected, checked_at = EXCLUDED.checked_at
	`

	if _, err := s.pool.Exec(ctx, query, st.Platform, st.Connected, st.CheckedAt); err != nil {
		return fmt.Errorf("upsert platform status: %w", err)
	}
	return nil
}

// GetAll returns every known status ordered by platform.
func (s *PlatformStatusStore) GetAll(ctx context.Context) ([]*domain.PlatformStatus, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT platform, connected, checked_at
		FROM platform_status
		ORDER BY platform ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get platform statuses: %w", err)
	}
	defer rows.Close()

	var result []*domain.PlatformStatus
	for rows.Next() {
		var st domain.PlatformStatus
		if err := rows.Scan(&st.Platform, &st.Connected, &st.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan platform status row: %w", err)
		}
		result = append(result, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platform status rows: %w", err)
	}
	return result, nil
}
