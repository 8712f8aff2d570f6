package reporting

import (
	"time"

	"marketing-attribution/internal/domain"
)

// Report is an offline attribution report over one batch of journeys.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Journeys    int       `json:"journeys"`

	// Model-independent description of the batch
	Summary domain.JourneySummary `json:"summary"`

	// One section per model, in the order requested
	Models []ModelSection `json:"models"`

	// Channel revenue side by side; Revenue is aligned with Models
	Comparison []ComparisonRow `json:"comparison"`
}

// ModelSection holds the roll-ups for one attribution model.
type ModelSection struct {
	Kind           domain.ModelKind        `json:"model_kind"`
	MeanConfidence float64                 `json:"mean_confidence"`
	Channels       []domain.ChannelMetric  `json:"metrics"`
	Campaigns      []domain.CampaignMetric `json:"campaigns"`
}

// ComparisonRow is one channel's attributed revenue under every model.
type ComparisonRow struct {
	Channel string    `json:"channel"`
	Revenue []float64 `json:"revenue"`
	Spread  float64   `json:"spread"` // max - min across models
}
