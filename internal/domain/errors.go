package domain

import "errors"

// Attribution errors. All of them are caller-visible; nothing in the engine
// or aggregator substitutes defaults when one occurs.
var (
	// ErrInvalidJourney is returned for an empty touchpoint sequence,
	// non-monotonic timestamps, or missing/duplicate touchpoint ids.
	ErrInvalidJourney = errors.New("invalid journey")

	// ErrUnknownModelKind is returned when the requested model is not supported.
	ErrUnknownModelKind = errors.New("unknown model kind")

	// ErrUnresolvedTouchpoint is returned when a credit references a journey
	// or touchpoint that cannot be found.
	ErrUnresolvedTouchpoint = errors.New("unresolved touchpoint")

	// ErrNegativeValue is returned for a negative conversion value, spend or prior.
	ErrNegativeValue = errors.New("negative value")

	// ErrInvalidOptions is returned for model options outside their domain.
	ErrInvalidOptions = errors.New("invalid attribution options")
)
