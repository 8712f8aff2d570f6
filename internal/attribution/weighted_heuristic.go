package attribution

import (
	"marketing-attribution/internal/domain"
)

// Confidence bounds of the weighted heuristic.
const (
	heuristicBaseConfidence = 0.60
	heuristicMaxConfidence  = 0.96

	heuristicLengthWeight    = 0.20
	heuristicDiversityWeight = 0.08
	heuristicSpreadWeight    = 0.08
)

// WeightedHeuristic scores each touchpoint as
//
//	decay(Δt) * prior(channel) + bonus   (bonus only when the device differs from a neighbour)
//
// and normalizes the scores. It is a deterministic stand-in for a learned
// model: nothing here is trained.
type WeightedHeuristic struct {
	opts domain.Options
}

// NewWeightedHeuristic creates the model from resolved options.
func NewWeightedHeuristic(opts domain.Options) *WeightedHeuristic {
	return &WeightedHeuristic{opts: opts}
}

func (m *WeightedHeuristic) Kind() domain.ModelKind { return domain.ModelWeightedHeuristic }

func (m *WeightedHeuristic) Credit(j *domain.Journey) []domain.Credit {
	if len(j.Touchpoints) == 1 {
		return sole(j)
	}
	return normalize(j, m.scores(j))
}

func (m *WeightedHeuristic) scores(j *domain.Journey) []float64 {
	decay := decayFactors(j, m.opts.HalfLifeDays)
	bonus := m.opts.Bonus()
	n := len(j.Touchpoints)

	raw := make([]float64, n)
	for i, tp := range j.Touchpoints {
		raw[i] = decay[i] * m.opts.Prior(tp.Channel)
		if bridgesDevices(j, i) {
			raw[i] += bonus
		}
	}
	return raw
}

// bridgesDevices reports whether touchpoint i sits next to a touchpoint on another device.
func bridgesDevices(j *domain.Journey, i int) bool {
	dev := j.Touchpoints[i].Device
	if i > 0 && j.Touchpoints[i-1].Device != dev {
		return true
	}
	if i < len(j.Touchpoints)-1 && j.Touchpoints[i+1].Device != dev {
		return true
	}
	return false
}

// Confidence grows with journey length, channel diversity and the spread of
// the channel priors involved, capped at heuristicMaxConfidence.
//
//	0.60 + 0.20*(1-1/n) + 0.08*(distinct-1)/(n-1) + 0.08*(maxPrior-minPrior)/maxPrior
func (m *WeightedHeuristic) Confidence(j *domain.Journey) float64 {
	n := len(j.Touchpoints)
	if n == 0 {
		return 0
	}

	length := 1 - 1/float64(n)

	channels := make(map[string]struct{}, n)
	minPrior, maxPrior := -1.0, 0.0
	for _, tp := range j.Touchpoints {
		channels[tp.Channel] = struct{}{}
		p := m.opts.Prior(tp.Channel)
		if minPrior < 0 || p < minPrior {
			minPrior = p
		}
		if p > maxPrior {
			maxPrior = p
		}
	}

	var diversity float64
	if n > 1 {
		diversity = float64(len(channels)-1) / float64(n-1)
	}

	var spread float64
	if maxPrior > 0 {
		spread = (maxPrior - minPrior) / maxPrior
	}

	c := heuristicBaseConfidence +
		heuristicLengthWeight*length +
		heuristicDiversityWeight*diversity +
		heuristicSpreadWeight*spread
	if c > heuristicMaxConfidence {
		c = heuristicMaxConfidence
	}
	return c
}
