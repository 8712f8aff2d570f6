package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/engine"
	"marketing-attribution/internal/idhash"
	"marketing-attribution/internal/storage"
	"marketing-attribution/internal/storage/memory"
)

var now = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

type testStores struct {
	events    *memory.EventStore
	spend     *memory.SpendStore
	snapshots *memory.MetricSnapshotStore
}

func createTestStores() testStores {
	return testStores{
		events:    memory.NewEventStore(),
		spend:     memory.NewSpendStore(),
		snapshots: memory.NewMetricSnapshotStore(),
	}
}

func newOrchestrator(s testStores, models ...domain.ModelKind) *Orchestrator {
	return New(Options{
		EventStore:    s.events,
		SpendStore:    s.spend,
		SnapshotStore: s.snapshots,
		Engine:        engine.New(engine.Options{Workers: 2}),
		Models:        models,
		Window:        7 * 24 * time.Hour,
		Workers:       2,
		Logger:        zerolog.Nop(),
	})
}

func seedEvents(t *testing.T, store storage.EventStore) {
	t.Helper()
	at := func(d time.Duration) time.Time { return now.Add(-d) }
	events := []*domain.TrackedEvent{
		// u1 converts inside the window after starting before it.
		{EventID: "a1", UserID: "u1", EventType: "click", Channel: "meta_ads", CampaignID: "spring", Device: "mobile", Timestamp: at(9 * 24 * time.Hour)},
		{EventID: "a2", UserID: "u1", EventType: "click", Channel: "email", Device: "desktop", Timestamp: at(3 * 24 * time.Hour)},
		{EventID: "a3", UserID: "u1", EventType: "purchase", Channel: "direct", Device: "desktop", EventValue: 200, Currency: "USD", Timestamp: at(2 * 24 * time.Hour)},
		// u2 converted before the window.
		{EventID: "b1", UserID: "u2", EventType: "purchase", Channel: "google_ads", EventValue: 50, Timestamp: at(8 * 24 * time.Hour)},
		// u3 never converts.
		{EventID: "c1", UserID: "u3", EventType: "view", Channel: "tiktok_ads", Timestamp: at(time.Hour)},
	}
	require.NoError(t, store.InsertBulk(context.Background(), events))
}

func TestOrchestrator_RunOnce_Empty(t *testing.T) {
	s := createTestStores()
	o := newOrchestrator(s, domain.ModelLinear)

	result, err := o.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Journeys)
	require.Len(t, result.Runs, 1)
	assert.Empty(t, result.Runs[0].Channels)
	assert.Equal(t, 0, result.SnapshotsStored)
}

func TestOrchestrator_RunOnce(t *testing.T) {
	s := createTestStores()
	seedEvents(t, s.events)
	ctx := context.Background()
	require.NoError(t, s.spend.Upsert(ctx, &domain.SpendRecord{Channel: "meta_ads", CampaignID: "spring", Day: "2024-03-05", Amount: 40}))
	require.NoError(t, s.spend.Upsert(ctx, &domain.SpendRecord{Channel: "meta_ads", Day: "2024-01-01", Amount: 999}))

	o := newOrchestrator(s, domain.ModelLinear, domain.ModelLastTouch)
	result, err := o.RunOnce(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Journeys)
	require.Len(t, result.Runs, 2)

	linear := result.Runs[0]
	assert.Equal(t, domain.ModelLinear, linear.ModelKind)
	assert.Equal(t, idhash.RunID(domain.ModelLinear, now.Add(-7*24*time.Hour), now), linear.RunID)
	assert.InDelta(t, 0.78, linear.MeanConfidence, 1e-9)
	require.Len(t, linear.Channels, 3)

	byChannel := map[string]domain.ChannelMetric{}
	for _, m := range linear.Channels {
		byChannel[m.Channel] = m
	}
	meta := byChannel["meta_ads"]
	assert.InDelta(t, 200.0/3, meta.AttributedRevenue, 1e-9)
	assert.Equal(t, 40.0, meta.Spend, "spend outside the window is excluded")
	require.NotNil(t, meta.ROAS)
	assert.InDelta(t, (200.0/3)/40, *meta.ROAS, 1e-9)
	assert.Nil(t, byChannel["email"].ROAS)

	var campaigns []string
	for _, c := range linear.Campaigns {
		campaigns = append(campaigns, c.CampaignID)
	}
	assert.Equal(t, []string{"spring", "unknown"}, campaigns)

	last := result.Runs[1]
	require.Len(t, last.Channels, 3)
	assert.Equal(t, "direct", last.Channels[0].Channel)
	assert.InDelta(t, 200, last.Channels[0].AttributedRevenue, 1e-9)

	assert.Equal(t, 6, result.SnapshotsStored)
	stored, err := s.snapshots.GetByRunID(ctx, linear.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Equal(t, now.UnixMilli(), stored[0].WindowEnd)
}

func TestOrchestrator_RunOnce_Rerun(t *testing.T) {
	s := createTestStores()
	seedEvents(t, s.events)
	o := newOrchestrator(s, domain.ModelFirstTouch)

	first, err := o.RunOnce(context.Background(), now)
	require.NoError(t, err)
	second, err := o.RunOnce(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, first.Runs, second.Runs)
	assert.Equal(t, 0, second.SnapshotsStored)
}

func TestOrchestrator_LoadJourneys_InvalidWindow(t *testing.T) {
	o := newOrchestrator(createTestStores())
	_, err := o.LoadJourneys(context.Background(), now, now)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestInWindow(t *testing.T) {
	mk := func(id string, d time.Duration) domain.Journey {
		return domain.Journey{JourneyID: id, Touchpoints: []domain.Touchpoint{{ID: id, OccurredAt: now.Add(d)}}}
	}
	journeys := []domain.Journey{mk("before", -time.Hour), mk("start", 0), mk("inside", time.Minute), mk("end", time.Hour)}

	got := InWindow(journeys, now, now.Add(time.Hour))
	require.Len(t, got, 2)
	assert.Equal(t, "start", got[0].JourneyID)
	assert.Equal(t, "inside", got[1].JourneyID)

	assert.Len(t, InWindow(journeys, time.Time{}, time.Time{}), 4)
}

func TestOrchestrator_Defaults(t *testing.T) {
	o := New(Options{EventStore: memory.NewEventStore(), Engine: engine.New(engine.Options{})})
	assert.Equal(t, domain.AllModelKinds, o.models)
	assert.Equal(t, 30*24*time.Hour, o.window)
	assert.Equal(t, o.window, o.lookback)

	_, err := o.RunOnce(context.Background(), now)
	assert.NoError(t, err)
}
