// Package ingestion turns inbound interaction events into stored tracked
// events and assembles them into conversion journeys.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"github.com/rs/zerolog"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/observability"
	"marketing-attribution/internal/storage"
)

// TrackResult is returned to callers of Track.
type TrackResult struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Tracker normalizes and stores tracked events. Event ids are idempotent:
// a repeated id is acknowledged but stored once.
type Tracker struct {
	store   storage.EventStore
	deduper Deduper
	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// TrackerOptions contains configuration for creating a Tracker.
type TrackerOptions struct {
	Store   storage.EventStore
	Deduper Deduper // default: in-memory
	Metrics *observability.Metrics
	Logger  *zerolog.Logger
	Now     func() time.Time // default: time.Now
	NewID   func() string    // default: uuid v4
}

// NewTracker creates a new Tracker.
func NewTracker(opts TrackerOptions) *Tracker {
	t := &Tracker{
		store:   opts.Store,
		deduper: opts.Deduper,
		metrics: opts.Metrics,
		logger:  zerolog.Nop(),
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if opts.Logger != nil {
		t.logger = *opts.Logger
	}
	if t.deduper == nil {
		t.deduper = NewMemoryDeduper()
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.newID == nil {
		t.newID = func() string { return uuid.NewString() }
	}
	return t
}

// Track normalizes e in place and stores it.
func (t *Tracker) Track(ctx context.Context, e *domain.TrackedEvent) (TrackResult, error) {
	if e == nil || strings.TrimSpace(e.EventType) == "" {
		return TrackResult{}, fmt.Errorf("event_type is required: %w", storage.ErrInvalidInput)
	}
	if e.EventValue < 0 {
		return TrackResult{}, fmt.Errorf("event_value %v: %w", e.EventValue, domain.ErrNegativeValue)
	}

	t.normalize(e)
	result := TrackResult{Status: "success", EventID: e.EventID, UserID: e.UserID, SessionID: e.SessionID}

	fresh, err := t.deduper.MarkSeen(ctx, e.EventID)
	if err != nil {
		return TrackResult{}, fmt.Errorf("dedupe event %s: %w", e.EventID, err)
	}
	if !fresh {
		t.metrics.RecordDuplicate()
		t.logger.Debug().Str("event_id", e.EventID).Msg("duplicate event skipped")
		return result, nil
	}

	if err := t.store.Insert(ctx, e); err != nil {
		// A deduper with a short TTL can forget ids the store still has.
		if errors.Is(err, storage.ErrDuplicateKey) {
			t.metrics.RecordDuplicate()
			return result, nil
		}
		return TrackResult{}, fmt.Errorf("store event %s: %w", e.EventID, err)
	}

	t.metrics.RecordTracked(e.Channel)
	t.logger.Debug().
		Str("event_id", e.EventID).
		Str("user_id", e.UserID).
		Str("event_type", e.EventType).
		Str("channel", e.Channel).
		Msg("event tracked")
	return result, nil
}

func (t *Tracker) normalize(e *domain.TrackedEvent) {
	if e.EventID == "" {
		e.EventID = t.newID()
	}
	if e.UserID == "" {
		e.UserID = t.newID()
	}
	if e.SessionID == "" {
		e.SessionID = t.newID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = t.now().UTC()
	}
	e.EventType = strings.ToLower(strings.TrimSpace(e.EventType))
	if e.Device == "" {
		e.Device = DeviceFromUserAgent(e.UserAgent)
	}
	if e.Channel == "" {
		e.Channel = ChannelFor(e.UTMSource, e.Platform)
	}
	if e.CampaignID == "" {
		e.CampaignID = e.UTMCampaign
	}
}

// DeviceFromUserAgent classifies a user agent as mobile, tablet or desktop.
// Empty and unrecognized agents are desktop.
func DeviceFromUserAgent(s string) string {
	if s == "" {
		return domain.DeviceDesktop
	}
	if strings.Contains(s, "iPad") || strings.Contains(s, "Tablet") {
		return domain.DeviceTablet
	}
	ua := useragent.New(s)
	if ua.Mobile() {
		if strings.Contains(s, "Android") && !strings.Contains(s, "Mobile") {
			return domain.DeviceTablet
		}
		return domain.DeviceMobile
	}
	return domain.DeviceDesktop
}

var sourceChannels = map[string]string{
	"facebook":   domain.ChannelMetaAds,
	"fb":         domain.ChannelMetaAds,
	"instagram":  domain.ChannelMetaAds,
	"meta":       domain.ChannelMetaAds,
	"google":     domain.ChannelGoogleAds,
	"adwords":    domain.ChannelGoogleAds,
	"youtube":    domain.ChannelGoogleAds,
	"tiktok":     domain.ChannelTikTokAds,
	"email":      domain.ChannelEmail,
	"newsletter": domain.ChannelEmail,
	"whatsapp":   domain.ChannelWhatsApp,
	"wa":         domain.ChannelWhatsApp,
}

// ChannelFor derives a channel from utm_source, then platform. Values that
// are not a known alias pass through lower-cased; nothing at all is direct.
func ChannelFor(utmSource, platform string) string {
	for _, raw := range []string{utmSource, platform} {
		v := strings.ToLower(strings.TrimSpace(raw))
		if v == "" {
			continue
		}
		if ch, ok := sourceChannels[v]; ok {
			return ch
		}
		return v
	}
	return domain.ChannelDirect
}
