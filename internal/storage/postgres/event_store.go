package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const insertEventQuery = `
	INSERT INTO tracked_events (
		event_id, user_id, session_id, event_type, platform, channel, campaign_id,
		device, user_agent, event_value, currency, occurred_at,
		utm_source, utm_medium, utm_campaign
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7,
		$8, $9, $10, $11, $12,
		$13, $14, $15
	)
`

const selectEventColumns = `
	SELECT event_id, user_id, session_id, event_type, platform, channel, campaign_id,
		device, user_agent, event_value, currency, occurred_at,
		utm_source, utm_medium, utm_campaign
	FROM tracked_events
`

func eventArgs(e *domain.TrackedEvent) []any {
	return []any{
		e.EventID, e.UserID, e.SessionID, e.EventType, e.Platform, e.Channel, e.CampaignID,
		e.Device, e.UserAgent, e.EventValue, e.Currency, e.Timestamp.UnixMilli(),
		e.UTMSource, e.UTMMedium, e.UTMCampaign,
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(ctx context.Context, e *domain.TrackedEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertEventQuery, eventArgs(e)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert tracked event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(ctx context.Context, events []*domain.TrackedEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		if e == nil || e.EventID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertEventQuery, eventArgs(e)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert tracked event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves events within [start, end), ordered by (occurred_at, event_id).
func (s *EventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TrackedEvent, error) {
	query := selectEventColumns + `
		WHERE occurred_at >= $1 AND occurred_at < $2
		ORDER BY occurred_at ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get tracked events by time range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent retrieves up to limit events, newest first.
func (s *EventStore) ListRecent(ctx context.Context, platform string, limit int) ([]*domain.TrackedEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := selectEventColumns + `
		WHERE ($1 = '' OR platform = $1)
		ORDER BY occurred_at DESC, event_id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent tracked events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvents scans multiple rows into a slice of TrackedEvent.
func scanEvents(rows pgx.Rows) ([]*domain.TrackedEvent, error) {
	var events []*domain.TrackedEvent

	for rows.Next() {
		var e domain.TrackedEvent
		var occurredAt int64

		err := rows.Scan(
			&e.EventID, &e.UserID, &e.SessionID, &e.EventType, &e.Platform, &e.Channel, &e.CampaignID,
			&e.Device, &e.UserAgent, &e.EventValue, &e.Currency, &occurredAt,
			&e.UTMSource, &e.UTMMedium, &e.UTMCampaign,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tracked event row: %w", err)
		}
		e.Timestamp = time.UnixMilli(occurredAt).UTC()

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked event rows: %w", err)
	}

	return events, nil
}
