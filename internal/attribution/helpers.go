package attribution

import (
	"math"

	"marketing-attribution/internal/domain"
)

const msPerDay = float64(24 * 60 * 60 * 1000)

// sole returns the credit vector of a single-touchpoint journey.
// Every model treats that case identically.
func sole(j *domain.Journey) []domain.Credit {
	return []domain.Credit{{TouchpointID: j.Touchpoints[0].ID, Weight: 1.0}}
}

// allTo gives the whole credit to touchpoint idx.
func allTo(j *domain.Journey, idx int) []domain.Credit {
	credits := make([]domain.Credit, len(j.Touchpoints))
	for i, tp := range j.Touchpoints {
		credits[i] = domain.Credit{TouchpointID: tp.ID}
	}
	credits[idx].Weight = 1.0
	return credits
}

// uniform splits the credit evenly.
func uniform(j *domain.Journey) []domain.Credit {
	n := len(j.Touchpoints)
	w := 1.0 / float64(n)
	credits := make([]domain.Credit, n)
	for i, tp := range j.Touchpoints {
		credits[i] = domain.Credit{TouchpointID: tp.ID, Weight: w}
	}
	return credits
}

// normalize scales raw scores to weights summing to 1.
// A journey whose scores are all zero falls back to uniform weights.
func normalize(j *domain.Journey, raw []float64) []domain.Credit {
	var sum float64
	for _, r := range raw {
		sum += r
	}
	if sum <= 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return uniform(j)
	}

	credits := make([]domain.Credit, len(raw))
	for i, r := range raw {
		credits[i] = domain.Credit{TouchpointID: j.Touchpoints[i].ID, Weight: r / sum}
	}
	return credits
}

// decayFactors returns 2^(-Δt/halfLife) per touchpoint, Δt measured in days
// from the touchpoint to the conversion (the last touchpoint).
func decayFactors(j *domain.Journey, halfLifeDays float64) []float64 {
	conv := j.ConversionTime()
	out := make([]float64, len(j.Touchpoints))
	for i, tp := range j.Touchpoints {
		deltaDays := float64(conv.Sub(tp.OccurredAt).Milliseconds()) / msPerDay
		out[i] = math.Exp2(-deltaDays / halfLifeDays)
	}
	return out
}
