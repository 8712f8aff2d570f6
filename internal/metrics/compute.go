package metrics

import (
	"math"

	"marketing-attribution/internal/domain"
)

// ROAS returns revenue/spend, or nil when spend is not positive.
func ROAS(revenue, spend float64) *float64 {
	if spend <= 0 {
		return nil
	}
	v := revenue / spend
	return &v
}

// Round2 rounds to two decimals for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarize describes journeys independently of any attribution model.
func Summarize(journeys []domain.Journey) domain.JourneySummary {
	var s domain.JourneySummary
	for i := range journeys {
		j := &journeys[i]
		s.TotalRevenue += j.ConversionValue
		s.TotalConversions++
		s.TotalTouchpoints += len(j.Touchpoints)
		if j.IsCrossDevice() {
			s.CrossDeviceConversions++
		}
		if j.HasChannel(domain.ChannelWhatsApp) {
			s.WhatsAppConversions++
		}
	}
	if s.TotalConversions > 0 {
		s.AverageJourneyLength = float64(s.TotalTouchpoints) / float64(s.TotalConversions)
	}
	return s
}

// MeanConfidence averages result confidences; 0 for no results.
func MeanConfidence(results []domain.AttributionResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / float64(len(results))
}
