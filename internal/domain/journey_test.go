package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func tp(id, channel, device string, offset time.Duration) Touchpoint {
	return Touchpoint{ID: id, Channel: channel, Device: device, OccurredAt: t0.Add(offset)}
}

func TestJourneyValidate(t *testing.T) {
	tests := []struct {
		name    string
		journey Journey
		wantErr error
	}{
		{
			name:    "valid",
			journey: Journey{JourneyID: "j", ConversionValue: 10, Touchpoints: []Touchpoint{tp("a", "email", DeviceMobile, 0), tp("b", "direct", DeviceMobile, time.Hour)}},
		},
		{
			name:    "equal timestamps allowed",
			journey: Journey{JourneyID: "j", Touchpoints: []Touchpoint{tp("a", "email", DeviceMobile, 0), tp("b", "email", DeviceMobile, 0)}},
		},
		{
			name:    "no touchpoints",
			journey: Journey{JourneyID: "j"},
			wantErr: ErrInvalidJourney,
		},
		{
			name:    "negative value",
			journey: Journey{JourneyID: "j", ConversionValue: -1, Touchpoints: []Touchpoint{tp("a", "email", DeviceMobile, 0)}},
			wantErr: ErrNegativeValue,
		},
		{
			name:    "NaN value",
			journey: Journey{JourneyID: "j", ConversionValue: math.NaN(), Touchpoints: []Touchpoint{tp("a", "email", DeviceMobile, 0)}},
			wantErr: ErrNegativeValue,
		},
		{
			name:    "infinite value",
			journey: Journey{JourneyID: "j", ConversionValue: math.Inf(1), Touchpoints: []Touchpoint{tp("a", "email", DeviceMobile, 0)}},
			wantErr: ErrNegativeValue,
		},
		{
			name:    "zero occurred_at",
			journey: Journey{JourneyID: "j", Touchpoints: []Touchpoint{{ID: "a", Channel: "email", Device: DeviceMobile}, tp("b", "direct", DeviceMobile, 0)}},
			wantErr: ErrInvalidJourney,
		},
		{
			name:    "missing id",
			journey: Journey{JourneyID: "j", Touchpoints: []Touchpoint{tp("", "email", DeviceMobile, 0)}},
			wantErr: ErrInvalidJourney,
		},
		{
			name:    "duplicate id",
			journey: Journey{JourneyID: "j", Touchpoints: []Touchpoint{tp("a", "email", DeviceMobile, 0), tp("a", "direct", DeviceMobile, time.Hour)}},
			wantErr: ErrInvalidJourney,
		},
		{
			name:    "out of order",
			journey: Journey{JourneyID: "j", Touchpoints: []Touchpoint{tp("a", "email", DeviceMobile, time.Hour), tp("b", "direct", DeviceMobile, 0)}},
			wantErr: ErrInvalidJourney,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.journey.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestJourneyValidate_MissingOccurredAt(t *testing.T) {
	raw := `{"journey_id":"j","conversion_value":100,"touchpoints":[
		{"id":"a","channel":"meta_ads","device":"mobile"},
		{"id":"b","channel":"email","device":"mobile","occurred_at":"2024-03-01T12:00:00Z"}
	]}`

	var j Journey
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !j.Touchpoints[0].OccurredAt.IsZero() {
		t.Fatalf("expected zero occurred_at, got %v", j.Touchpoints[0].OccurredAt)
	}
	if err := j.Validate(); !errors.Is(err, ErrInvalidJourney) {
		t.Fatalf("expected ErrInvalidJourney, got %v", err)
	}
}

func TestJourneyHelpers(t *testing.T) {
	j := Journey{Touchpoints: []Touchpoint{
		tp("a", ChannelWhatsApp, DeviceMobile, 0),
		tp("b", ChannelEmail, DeviceDesktop, 2*time.Hour),
	}}

	if got := j.ConversionTime(); !got.Equal(t0.Add(2 * time.Hour)) {
		t.Errorf("ConversionTime = %v", got)
	}
	if !j.IsCrossDevice() {
		t.Error("expected cross-device journey")
	}
	if !j.HasChannel(ChannelWhatsApp) || j.HasChannel(ChannelDirect) {
		t.Error("HasChannel mismatch")
	}
	if got, ok := j.Touchpoint("b"); !ok || got.Channel != ChannelEmail {
		t.Errorf("Touchpoint(b) = %+v, %v", got, ok)
	}
	if _, ok := j.Touchpoint("z"); ok {
		t.Error("Touchpoint(z) should not be found")
	}

	var empty Journey
	if !empty.ConversionTime().IsZero() || empty.IsCrossDevice() {
		t.Error("empty journey helpers should return zero values")
	}
}
