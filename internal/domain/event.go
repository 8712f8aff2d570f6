package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tracked event types. Purchase and conversion close a journey.
const (
	EventImpression = "impression"
	EventClick      = "click"
	EventView       = "view"
	EventMessage    = "message"
	EventPurchase   = "purchase"
	EventConversion = "conversion"
)

// TrackedEvent is a raw interaction recorded by the tracking endpoint or a stream.
type TrackedEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	EventType   string    `json:"event_type"`
	Platform    string    `json:"platform,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	CampaignID  string    `json:"campaign_id,omitempty"`
	Device      string    `json:"device,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	EventValue  float64   `json:"event_value"`
	Currency    string    `json:"currency,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	UTMSource   string    `json:"utm_source,omitempty"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
}

// IsConversion reports whether the event closes a journey.
func (e *TrackedEvent) IsConversion() bool {
	return e.EventType == EventPurchase || e.EventType == EventConversion
}

// PlatformStatus is the connection state of an external ad/messaging platform.
type PlatformStatus struct {
	Platform  string `json:"platform"`
	Connected bool   `json:"connected"`
	CheckedAt int64  `json:"checked_at"` // epoch ms
}

// SpendRecord is the spend of a channel (and optionally a campaign) on one day.
type SpendRecord struct {
	Channel    string  `json:"channel"`
	CampaignID string  `json:"campaign_id,omitempty"`
	Day        string  `json:"day"` // YYYY-MM-DD, UTC
	Amount     float64 `json:"amount"`
}

// UnmarshalJSON accepts timestamp as an RFC3339 string or as epoch millis.
func (e *TrackedEvent) UnmarshalJSON(data []byte) error {
	type alias TrackedEvent
	aux := struct {
		*alias
		Timestamp json.RawMessage `json:"timestamp"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts, err := ParseTimestamp(aux.Timestamp)
	if err != nil {
		return fmt.Errorf("event %q timestamp: %w", e.EventID, err)
	}
	e.Timestamp = ts
	return nil
}
