package memory

import (
	"context"
	"errors"
	"testing"

	"marketing-attribution/internal/domain"
)

func TestSpendStore_Sums(t *testing.T) {
	store := NewSpendStore()
	ctx := context.Background()

	records := []*domain.SpendRecord{
		{Channel: "meta_ads", CampaignID: "spring", Day: "2024-03-01", Amount: 100},
		{Channel: "meta_ads", CampaignID: "spring", Day: "2024-03-02", Amount: 50},
		{Channel: "meta_ads", Day: "2024-03-02", Amount: 10},
		{Channel: "email", Day: "2024-03-03", Amount: 5},
		{Channel: "email", Day: "2024-03-09", Amount: 999},
	}
	for _, r := range records {
		if err := store.Upsert(ctx, r); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	// Restating replaces the previous amount.
	if err := store.Upsert(ctx, &domain.SpendRecord{Channel: "meta_ads", CampaignID: "spring", Day: "2024-03-01", Amount: 80}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	byChannel, err := store.SumByChannel(ctx, "2024-03-01", "2024-03-07")
	if err != nil {
		t.Fatalf("SumByChannel failed: %v", err)
	}
	if byChannel["meta_ads"] != 140 || byChannel["email"] != 5 {
		t.Errorf("Unexpected channel sums: %v", byChannel)
	}

	byCampaign, err := store.SumByCampaign(ctx, "2024-03-01", "2024-03-07")
	if err != nil {
		t.Fatalf("SumByCampaign failed: %v", err)
	}
	if len(byCampaign) != 1 || byCampaign["spring"] != 130 {
		t.Errorf("Unexpected campaign sums: %v", byCampaign)
	}
}

func TestSpendStore_RejectsNegative(t *testing.T) {
	store := NewSpendStore()
	err := store.Upsert(context.Background(), &domain.SpendRecord{Channel: "email", Day: "2024-03-01", Amount: -1})
	if !errors.Is(err, domain.ErrNegativeValue) {
		t.Errorf("Expected ErrNegativeValue, got %v", err)
	}
}
