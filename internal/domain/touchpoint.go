package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Device classes a touchpoint can originate from.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceTablet  = "tablet"
)

// Well-known channels. Any other string is accepted as a channel.
const (
	ChannelMetaAds   = "meta_ads"
	ChannelGoogleAds = "google_ads"
	ChannelTikTokAds = "tiktok_ads"
	ChannelEmail     = "email"
	ChannelDirect    = "direct"
	ChannelWhatsApp  = "whatsapp"
)

// Touchpoint is a single recorded customer interaction.
type Touchpoint struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	Device     string    `json:"device"`
	OccurredAt time.Time `json:"occurred_at"`
	Action     string    `json:"action"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Platform   string    `json:"platform,omitempty"`
}

// UnmarshalJSON accepts occurred_at as an RFC3339 string or as epoch millis.
func (t *Touchpoint) UnmarshalJSON(data []byte) error {
	type alias Touchpoint
	aux := struct {
		*alias
		OccurredAt json.RawMessage `json:"occurred_at"`
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts, err := ParseTimestamp(aux.OccurredAt)
	if err != nil {
		return fmt.Errorf("touchpoint %q occurred_at: %w", t.ID, err)
	}
	t.OccurredAt = ts
	return nil
}

// ParseTimestamp decodes a JSON timestamp given either as an ISO-8601 string
// or as a number of milliseconds since the Unix epoch. Empty input yields the
// zero time.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return time.Time{}, nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, err
		}
		return ts.UTC(), nil
	}

	var ms json.Number
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, err
	}
	v, err := ms.Int64()
	if err != nil {
		f, ferr := ms.Float64()
		if ferr != nil {
			return time.Time{}, err
		}
		// float64(MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return time.Time{}, fmt.Errorf("epoch millis %s out of range", ms)
		}
		v = int64(f)
	}
	return time.UnixMilli(v).UTC(), nil
}
