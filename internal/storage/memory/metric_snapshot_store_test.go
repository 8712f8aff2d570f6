package memory

import (
	"context"
	"errors"
	"testing"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

func snapshot(runID string, kind domain.ModelKind, channel string, revenue float64) *domain.MetricSnapshot {
	return &domain.MetricSnapshot{
		RunID:       runID,
		WindowStart: 0,
		WindowEnd:   1000,
		ComputedAt:  1000,
		Metric: domain.ChannelMetric{
			Channel:           channel,
			ModelKind:         kind,
			AttributedRevenue: revenue,
		},
	}
}

func TestMetricSnapshotStore_InsertAndGet(t *testing.T) {
	store := NewMetricSnapshotStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.MetricSnapshot{
		snapshot("run1", domain.ModelLinear, "email", 10),
		snapshot("run1", domain.ModelFirstTouch, "meta_ads", 20),
		snapshot("run1", domain.ModelLinear, "direct", 30),
		snapshot("run2", domain.ModelLinear, "direct", 40),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(got))
	}
	if got[0].Metric.ModelKind != domain.ModelFirstTouch || got[1].Metric.Channel != "direct" || got[2].Metric.Channel != "email" {
		t.Errorf("Unexpected order: %+v %+v %+v", got[0].Metric, got[1].Metric, got[2].Metric)
	}

	if _, err := store.GetByRunID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMetricSnapshotStore_Duplicate(t *testing.T) {
	store := NewMetricSnapshotStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.MetricSnapshot{snapshot("run1", domain.ModelLinear, "email", 10)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	err := store.InsertBulk(ctx, []*domain.MetricSnapshot{snapshot("run1", domain.ModelLinear, "email", 99)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}
