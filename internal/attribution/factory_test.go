package attribution

import (
	"errors"
	"math"
	"testing"

	"marketing-attribution/internal/domain"
)

func TestNew_AllKinds(t *testing.T) {
	for _, kind := range domain.AllModelKinds {
		m, err := New(kind, domain.Options{})
		if err != nil {
			t.Fatalf("New(%s) failed: %v", kind, err)
		}
		if m.Kind() != kind {
			t.Errorf("expected kind %s, got %s", kind, m.Kind())
		}
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("neural_net", domain.Options{})
	if !errors.Is(err, domain.ErrUnknownModelKind) {
		t.Fatalf("expected ErrUnknownModelKind, got %v", err)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		opts domain.Options
		want error
	}{
		{"negative half-life", domain.Options{HalfLifeDays: -1}, domain.ErrInvalidOptions},
		{"negative prior", domain.Options{ChannelPriors: map[string]float64{"email": -0.1}}, domain.ErrNegativeValue},
		{"infinite prior", domain.Options{ChannelPriors: map[string]float64{"meta_ads": math.Inf(1)}}, domain.ErrInvalidOptions},
		{"NaN bonus", domain.Options{CrossDeviceBonus: &nan}, domain.ErrInvalidOptions},
		{"prior above cap", domain.Options{ChannelPriors: map[string]float64{"meta_ads": 2e6}}, domain.ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(domain.ModelWeightedHeuristic, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNew_TimeDecayDefaultHalfLife(t *testing.T) {
	m, err := New(domain.ModelTimeDecay, domain.Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	td, ok := m.(*TimeDecay)
	if !ok {
		t.Fatalf("expected *TimeDecay, got %T", m)
	}
	if td.HalfLifeDays != 7 {
		t.Errorf("expected half-life 7, got %v", td.HalfLifeDays)
	}
}
