package domain

// ChannelMetric is the roll-up of attributed credit for one channel under one model.
// ROAS is nil when Spend is zero.
type ChannelMetric struct {
	Channel               string    `json:"channel"`
	ModelKind             ModelKind `json:"model_kind"`
	AttributedRevenue     float64   `json:"attributed_revenue"`
	AttributedConversions float64   `json:"attributed_conversions"`
	Spend                 float64   `json:"spend"`
	ROAS                  *float64  `json:"roas"`
}

// CampaignMetric is the roll-up of attributed credit for one campaign under one model.
type CampaignMetric struct {
	CampaignID            string    `json:"campaign_id"`
	ModelKind             ModelKind `json:"model_kind"`
	AttributedRevenue     float64   `json:"attributed_revenue"`
	AttributedConversions float64   `json:"attributed_conversions"`
	Spend                 float64   `json:"spend"`
	ROAS                  *float64  `json:"roas"`
}

// JourneySummary describes a batch of journeys independently of any model.
type JourneySummary struct {
	TotalRevenue           float64 `json:"total_revenue"`
	TotalConversions       int     `json:"total_conversions"`
	TotalTouchpoints       int     `json:"total_touchpoints"`
	CrossDeviceConversions int     `json:"cross_device_conversions"`
	AverageJourneyLength   float64 `json:"average_journey_length"`
	WhatsAppConversions    int     `json:"whatsapp_conversions"`
}

// MetricSnapshot is a persisted channel metric for one pipeline run.
type MetricSnapshot struct {
	RunID       string
	WindowStart int64 // epoch ms, inclusive
	WindowEnd   int64 // epoch ms, exclusive
	ComputedAt  int64 // epoch ms
	Metric      ChannelMetric
}
