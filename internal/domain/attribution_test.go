package domain

import (
	"errors"
	"math"
	"testing"
)

func TestOptionsResolve_Defaults(t *testing.T) {
	got, err := Options{}.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.HalfLifeDays != DefaultHalfLifeDays {
		t.Errorf("HalfLifeDays = %v, want %v", got.HalfLifeDays, DefaultHalfLifeDays)
	}
	if got.Bonus() != DefaultCrossDeviceBonus {
		t.Errorf("Bonus = %v, want %v", got.Bonus(), DefaultCrossDeviceBonus)
	}
	if got.Prior(ChannelWhatsApp) != 1.3 || got.Prior(ChannelDirect) != 0.5 {
		t.Errorf("unexpected default priors: %v", got.ChannelPriors)
	}
	if got.Prior("carrier_pigeon") != DefaultChannelPrior {
		t.Errorf("unknown channel prior = %v, want %v", got.Prior("carrier_pigeon"), DefaultChannelPrior)
	}
}

func TestOptionsResolve_Overrides(t *testing.T) {
	zero := 0.0
	in := Options{
		HalfLifeDays:     3,
		CrossDeviceBonus: &zero,
		ChannelPriors:    map[string]float64{ChannelEmail: 2, "sms": 0.4},
	}
	got, err := in.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.HalfLifeDays != 3 || got.Bonus() != 0 {
		t.Errorf("unexpected resolved options: %+v", got)
	}
	if got.Prior(ChannelEmail) != 2 || got.Prior("sms") != 0.4 || got.Prior(ChannelMetaAds) != 1.1 {
		t.Errorf("overrides not merged: %v", got.ChannelPriors)
	}

	// The resolved table is a copy.
	got.ChannelPriors[ChannelEmail] = 9
	if in.ChannelPriors[ChannelEmail] != 2 {
		t.Error("Resolve must not alias the caller's prior map")
	}
}

func TestOptionsResolve_Invalid(t *testing.T) {
	neg := -0.1
	nan := math.NaN()
	inf := math.Inf(1)
	huge := MaxWeightParam + 1
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"negative half-life", Options{HalfLifeDays: -1}, ErrInvalidOptions},
		{"nan half-life", Options{HalfLifeDays: math.NaN()}, ErrInvalidOptions},
		{"inf half-life", Options{HalfLifeDays: math.Inf(1)}, ErrInvalidOptions},
		{"negative bonus", Options{CrossDeviceBonus: &neg}, ErrNegativeValue},
		{"negative prior", Options{ChannelPriors: map[string]float64{"email": -1}}, ErrNegativeValue},
		{"nan bonus", Options{CrossDeviceBonus: &nan}, ErrInvalidOptions},
		{"inf bonus", Options{CrossDeviceBonus: &inf}, ErrInvalidOptions},
		{"inf prior", Options{ChannelPriors: map[string]float64{"email": math.Inf(1)}}, ErrInvalidOptions},
		{"nan prior", Options{ChannelPriors: map[string]float64{"email": math.NaN()}}, ErrInvalidOptions},
		{"oversized prior", Options{ChannelPriors: map[string]float64{"email": MaxWeightParam * 2}}, ErrInvalidOptions},
		{"oversized bonus", Options{CrossDeviceBonus: &huge}, ErrInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Resolve()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestModelKindValid(t *testing.T) {
	for _, k := range AllModelKinds {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if ModelKind("markov").Valid() {
		t.Error("markov should not be valid")
	}
}
