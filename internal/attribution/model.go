// Package attribution implements the attribution model library.
// Every model maps a validated, non-empty journey to per-touchpoint credits
// whose weights are non-negative and sum to 1.0.
package attribution

import (
	"marketing-attribution/internal/domain"
)

// Model splits the credit of one conversion among its touchpoints.
type Model interface {
	// Kind returns the model identifier.
	Kind() domain.ModelKind

	// Credit returns one credit per touchpoint, in touchpoint order.
	// The journey must be non-empty; the engine enforces this.
	Credit(j *domain.Journey) []domain.Credit

	// Confidence returns how much the model's assumptions hold for j, in [0,1].
	Confidence(j *domain.Journey) float64
}

// Fixed confidences of the rule-based models.
const (
	ConfidenceFirstTouch    = 0.72
	ConfidenceLastTouch     = 0.68
	ConfidenceLinear        = 0.78
	ConfidenceTimeDecay     = 0.82
	ConfidencePositionBased = 0.85
)
