package ingestion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
	"marketing-attribution/internal/storage/memory"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTracker(store storage.EventStore) *Tracker {
	n := 0
	return NewTracker(TrackerOptions{
		Store: store,
		Now:   func() time.Time { return fixedNow },
		NewID: func() string { n++; return fmt.Sprintf("gen-%d", n) },
	})
}

func TestTracker_Defaults(t *testing.T) {
	store := memory.NewEventStore()
	tr := newTestTracker(store)

	res, err := tr.Track(context.Background(), &domain.TrackedEvent{
		EventType: "Click",
		UTMSource: "facebook",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
	})
	require.NoError(t, err)
	assert.Equal(t, TrackResult{Status: "success", EventID: "gen-1", UserID: "gen-2", SessionID: "gen-3"}, res)

	got, err := store.GetByTimeRange(context.Background(), fixedNow.UnixMilli(), fixedNow.UnixMilli()+1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventClick, got[0].EventType)
	assert.Equal(t, domain.ChannelMetaAds, got[0].Channel)
	assert.Equal(t, domain.DeviceMobile, got[0].Device)
	assert.True(t, got[0].Timestamp.Equal(fixedNow))
}

func TestTracker_KeepsProvidedFields(t *testing.T) {
	tr := newTestTracker(memory.NewEventStore())
	ts := fixedNow.Add(-time.Hour)
	e := &domain.TrackedEvent{
		EventID: "e1", UserID: "u1", SessionID: "s1", EventType: "purchase",
		Channel: "email", Device: "tablet", Timestamp: ts, EventValue: 50,
	}
	res, err := tr.Track(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, "e1", res.EventID)
	assert.Equal(t, "email", e.Channel)
	assert.Equal(t, "tablet", e.Device)
	assert.True(t, e.Timestamp.Equal(ts))
}

func TestTracker_Duplicate(t *testing.T) {
	store := memory.NewEventStore()
	tr := newTestTracker(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := tr.Track(ctx, &domain.TrackedEvent{EventID: "dup", UserID: "u", EventType: "view"})
		require.NoError(t, err)
		assert.Equal(t, "dup", res.EventID)
	}

	got, err := store.ListRecent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTracker_StoreDuplicateIsAcknowledged(t *testing.T) {
	store := memory.NewEventStore()
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, &domain.TrackedEvent{EventID: "old", EventType: "view", Timestamp: fixedNow}))

	// A fresh deduper has forgotten "old".
	tr := newTestTracker(store)
	_, err := tr.Track(ctx, &domain.TrackedEvent{EventID: "old", EventType: "view"})
	assert.NoError(t, err)
}

func TestTracker_Rejects(t *testing.T) {
	tr := newTestTracker(memory.NewEventStore())
	ctx := context.Background()

	_, err := tr.Track(ctx, &domain.TrackedEvent{EventType: " "})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = tr.Track(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = tr.Track(ctx, &domain.TrackedEvent{EventType: "purchase", EventValue: -1})
	assert.ErrorIs(t, err, domain.ErrNegativeValue)
}

func TestChannelFor(t *testing.T) {
	tests := []struct {
		utm, platform, want string
	}{
		{"google", "", domain.ChannelGoogleAds},
		{"", "tiktok", domain.ChannelTikTokAds},
		{"Newsletter", "meta", domain.ChannelEmail},
		{"", "", domain.ChannelDirect},
		{"Partner_Site", "", "partner_site"},
		{"", "WhatsApp", domain.ChannelWhatsApp},
	}
	for _, tt := range tests {
		if got := ChannelFor(tt.utm, tt.platform); got != tt.want {
			t.Errorf("ChannelFor(%q, %q) = %q, want %q", tt.utm, tt.platform, got, tt.want)
		}
	}
}

func TestDeviceFromUserAgent(t *testing.T) {
	tests := []struct {
		name, ua, want string
	}{
		{"empty", "", domain.DeviceDesktop},
		{"desktop chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", domain.DeviceDesktop},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1", domain.DeviceMobile},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1", domain.DeviceTablet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeviceFromUserAgent(tt.ua); got != tt.want {
				t.Errorf("DeviceFromUserAgent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMemoryDeduper(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()

	fresh, err := d.MarkSeen(ctx, "a")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = d.MarkSeen(ctx, "a")
	require.NoError(t, err)
	assert.False(t, fresh)
}
