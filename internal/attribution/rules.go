package attribution

import "marketing-attribution/internal/domain"

// FirstTouch gives all credit to the first touchpoint.
type FirstTouch struct{}

func (FirstTouch) Kind() domain.ModelKind { return domain.ModelFirstTouch }

func (FirstTouch) Credit(j *domain.Journey) []domain.Credit {
	if len(j.Touchpoints) == 1 {
		return sole(j)
	}
	return allTo(j, 0)
}

func (FirstTouch) Confidence(*domain.Journey) float64 { return ConfidenceFirstTouch }

// LastTouch gives all credit to the converting touchpoint.
type LastTouch struct{}

func (LastTouch) Kind() domain.ModelKind { return domain.ModelLastTouch }

func (LastTouch) Credit(j *domain.Journey) []domain.Credit {
	if len(j.Touchpoints) == 1 {
		return sole(j)
	}
	return allTo(j, len(j.Touchpoints)-1)
}

func (LastTouch) Confidence(*domain.Journey) float64 { return ConfidenceLastTouch }

// Linear splits credit evenly.
type Linear struct{}

func (Linear) Kind() domain.ModelKind { return domain.ModelLinear }

func (Linear) Credit(j *domain.Journey) []domain.Credit {
	if len(j.Touchpoints) == 1 {
		return sole(j)
	}
	return uniform(j)
}

func (Linear) Confidence(*domain.Journey) float64 { return ConfidenceLinear }

// Position-based shares.
const (
	positionEndShare      = 0.4
	positionInteriorShare = 0.2
)

// PositionBased is the U-shaped model: 40% first, 40% last, 20% spread over
// the interior. Without interior touchpoints the ends get 50% each.
type PositionBased struct{}

func (PositionBased) Kind() domain.ModelKind { return domain.ModelPositionBased }

func (PositionBased) Credit(j *domain.Journey) []domain.Credit {
	n := len(j.Touchpoints)
	switch n {
	case 1:
		return sole(j)
	case 2:
		return []domain.Credit{
			{TouchpointID: j.Touchpoints[0].ID, Weight: 0.5},
			{TouchpointID: j.Touchpoints[1].ID, Weight: 0.5},
		}
	}

	interior := positionInteriorShare / float64(n-2)
	credits := make([]domain.Credit, n)
	for i, tp := range j.Touchpoints {
		w := interior
		if i == 0 || i == n-1 {
			w = positionEndShare
		}
		credits[i] = domain.Credit{TouchpointID: tp.ID, Weight: w}
	}
	return credits
}

func (PositionBased) Confidence(*domain.Journey) float64 { return ConfidencePositionBased }
