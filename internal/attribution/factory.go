package attribution

import (
	"fmt"

	"marketing-attribution/internal/domain"
)

// New creates the model for kind. Options are validated and defaulted here,
// so the returned model can be reused across a whole batch.
func New(kind domain.ModelKind, opts domain.Options) (Model, error) {
	resolved, err := opts.Resolve()
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.ModelFirstTouch:
		return FirstTouch{}, nil
	case domain.ModelLastTouch:
		return LastTouch{}, nil
	case domain.ModelLinear:
		return Linear{}, nil
	case domain.ModelTimeDecay:
		return NewTimeDecay(resolved.HalfLifeDays), nil
	case domain.ModelPositionBased:
		return PositionBased{}, nil
	case domain.ModelWeightedHeuristic:
		return NewWeightedHeuristic(resolved), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModelKind, kind)
	}
}
