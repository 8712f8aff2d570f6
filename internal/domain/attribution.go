package domain

import (
	"fmt"
	"math"
)

// ModelKind identifies an attribution model.
type ModelKind string

const (
	ModelFirstTouch        ModelKind = "first_touch"
	ModelLastTouch         ModelKind = "last_touch"
	ModelLinear            ModelKind = "linear"
	ModelTimeDecay         ModelKind = "time_decay"
	ModelPositionBased     ModelKind = "position_based"
	ModelWeightedHeuristic ModelKind = "weighted_heuristic"
)

// AllModelKinds lists every supported model in presentation order.
var AllModelKinds = []ModelKind{
	ModelFirstTouch,
	ModelLastTouch,
	ModelLinear,
	ModelTimeDecay,
	ModelPositionBased,
	ModelWeightedHeuristic,
}

// Valid reports whether k is a supported model kind.
func (k ModelKind) Valid() bool {
	for _, m := range AllModelKinds {
		if m == k {
			return true
		}
	}
	return false
}

// Credit is the share of a conversion assigned to one touchpoint.
type Credit struct {
	TouchpointID string  `json:"touchpoint_id"`
	Weight       float64 `json:"weight"`
}

// AttributionResult is the output of one model run against one journey.
// Weights are non-negative and sum to 1.0.
type AttributionResult struct {
	JourneyID  string    `json:"journey_id"`
	ModelKind  ModelKind `json:"model_kind"`
	Credits    []Credit  `json:"credits"`
	Confidence float64   `json:"confidence"`
}

// Model parameter defaults.
const (
	DefaultHalfLifeDays     = 7.0
	DefaultCrossDeviceBonus = 0.15
	DefaultChannelPrior     = 1.0

	// MaxWeightParam bounds channel priors and the cross-device bonus so a
	// journey's raw heuristic scores always sum to a finite value.
	MaxWeightParam = 1e6
)

// DefaultChannelPriors returns the static prior table of the weighted heuristic.
func DefaultChannelPriors() map[string]float64 {
	return map[string]float64{
		ChannelMetaAds:   1.1,
		ChannelGoogleAds: 1.0,
		ChannelTikTokAds: 0.9,
		ChannelEmail:     0.7,
		ChannelDirect:    0.5,
		ChannelWhatsApp:  1.3,
	}
}

// Options tunes the parameterised models. The zero value means defaults.
type Options struct {
	// HalfLifeDays is the decay half-life for time_decay and weighted_heuristic.
	HalfLifeDays float64 `json:"half_life_days,omitempty" yaml:"half_life_days"`

	// ChannelPriors overrides entries of the default prior table.
	ChannelPriors map[string]float64 `json:"channel_priors,omitempty" yaml:"channel_priors"`

	// CrossDeviceBonus is added to the raw score of a touchpoint whose device
	// differs from an adjacent one. Nil means DefaultCrossDeviceBonus.
	CrossDeviceBonus *float64 `json:"cross_device_bonus,omitempty" yaml:"cross_device_bonus"`
}

// Resolve validates o and returns a copy with defaults filled in.
// The returned prior table is a fresh map owned by the caller.
func (o Options) Resolve() (Options, error) {
	out := Options{HalfLifeDays: o.HalfLifeDays}

	switch {
	case out.HalfLifeDays == 0:
		out.HalfLifeDays = DefaultHalfLifeDays
	case out.HalfLifeDays < 0 || math.IsNaN(out.HalfLifeDays) || math.IsInf(out.HalfLifeDays, 0):
		return Options{}, fmt.Errorf("%w: half_life_days must be positive, got %v", ErrInvalidOptions, o.HalfLifeDays)
	}

	bonus := DefaultCrossDeviceBonus
	if o.CrossDeviceBonus != nil {
		bonus = *o.CrossDeviceBonus
	}
	if err := checkWeightParam("cross_device_bonus", bonus); err != nil {
		return Options{}, err
	}
	out.CrossDeviceBonus = &bonus

	out.ChannelPriors = DefaultChannelPriors()
	for ch, p := range o.ChannelPriors {
		if err := checkWeightParam(fmt.Sprintf("channel prior %q", ch), p); err != nil {
			return Options{}, err
		}
		out.ChannelPriors[ch] = p
	}

	return out, nil
}

// checkWeightParam rejects negative values with ErrNegativeValue and
// non-finite or oversized ones with ErrInvalidOptions.
func checkWeightParam(name string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidOptions, name, v)
	case v < 0:
		return fmt.Errorf("%w: %s = %v", ErrNegativeValue, name, v)
	case v > MaxWeightParam:
		return fmt.Errorf("%w: %s = %v exceeds %v", ErrInvalidOptions, name, v, MaxWeightParam)
	}
	return nil
}

// Prior returns the prior weight for channel, falling back to DefaultChannelPrior.
func (o Options) Prior(channel string) float64 {
	if p, ok := o.ChannelPriors[channel]; ok {
		return p
	}
	return DefaultChannelPrior
}

// Bonus returns the cross-device bonus, falling back to the default.
func (o Options) Bonus() float64 {
	if o.CrossDeviceBonus == nil {
		return DefaultCrossDeviceBonus
	}
	return *o.CrossDeviceBonus
}
