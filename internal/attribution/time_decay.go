package attribution

import "marketing-attribution/internal/domain"

// TimeDecay weights touchpoints by 2^(-Δt/half_life), Δt being the time to
// conversion. The converting touchpoint always has the largest raw weight.
type TimeDecay struct {
	HalfLifeDays float64
}

// NewTimeDecay creates a TimeDecay model. halfLifeDays must be positive.
func NewTimeDecay(halfLifeDays float64) *TimeDecay {
	return &TimeDecay{HalfLifeDays: halfLifeDays}
}

func (m *TimeDecay) Kind() domain.ModelKind { return domain.ModelTimeDecay }

func (m *TimeDecay) Credit(j *domain.Journey) []domain.Credit {
	if len(j.Touchpoints) == 1 {
		return sole(j)
	}
	return normalize(j, decayFactors(j, m.HalfLifeDays))
}

func (m *TimeDecay) Confidence(*domain.Journey) float64 { return ConfidenceTimeDecay }
