package domain

import (
	"fmt"
	"math"
	"time"
)

// Journey is an ordered sequence of touchpoints that ended in one conversion.
// A journey is read-only once it is handed to the engine.
type Journey struct {
	JourneyID       string       `json:"journey_id"`
	UserID          string       `json:"user_id,omitempty"`
	Touchpoints     []Touchpoint `json:"touchpoints"`
	ConversionValue float64      `json:"conversion_value"`
	Currency        string       `json:"currency"`
}

// Validate checks the structural invariants of a journey.
func (j *Journey) Validate() error {
	if len(j.Touchpoints) == 0 {
		return fmt.Errorf("%w: journey %q has no touchpoints", ErrInvalidJourney, j.JourneyID)
	}
	if j.ConversionValue < 0 || math.IsNaN(j.ConversionValue) || math.IsInf(j.ConversionValue, 0) {
		return fmt.Errorf("%w: journey %q conversion_value %v", ErrNegativeValue, j.JourneyID, j.ConversionValue)
	}

	seen := make(map[string]struct{}, len(j.Touchpoints))
	for i, tp := range j.Touchpoints {
		if tp.ID == "" {
			return fmt.Errorf("%w: journey %q touchpoint %d has no id", ErrInvalidJourney, j.JourneyID, i)
		}
		if _, dup := seen[tp.ID]; dup {
			return fmt.Errorf("%w: journey %q duplicate touchpoint id %q", ErrInvalidJourney, j.JourneyID, tp.ID)
		}
		seen[tp.ID] = struct{}{}

		if tp.OccurredAt.IsZero() {
			return fmt.Errorf("%w: journey %q touchpoint %q has no occurred_at", ErrInvalidJourney, j.JourneyID, tp.ID)
		}

		if i > 0 && tp.OccurredAt.Before(j.Touchpoints[i-1].OccurredAt) {
			return fmt.Errorf("%w: journey %q touchpoint %q occurs before its predecessor",
				ErrInvalidJourney, j.JourneyID, tp.ID)
		}
	}
	return nil
}

// ConversionTime is the timestamp of the final touchpoint.
// Returns the zero time for an empty journey.
func (j *Journey) ConversionTime() time.Time {
	if len(j.Touchpoints) == 0 {
		return time.Time{}
	}
	return j.Touchpoints[len(j.Touchpoints)-1].OccurredAt
}

// Touchpoint returns the touchpoint with the given id.
func (j *Journey) Touchpoint(id string) (Touchpoint, bool) {
	for _, tp := range j.Touchpoints {
		if tp.ID == id {
			return tp, true
		}
	}
	return Touchpoint{}, false
}

// IsCrossDevice reports whether the journey spans more than one device class.
func (j *Journey) IsCrossDevice() bool {
	for i := 1; i < len(j.Touchpoints); i++ {
		if j.Touchpoints[i].Device != j.Touchpoints[0].Device {
			return true
		}
	}
	return false
}

// HasChannel reports whether any touchpoint belongs to channel.
func (j *Journey) HasChannel(channel string) bool {
	for _, tp := range j.Touchpoints {
		if tp.Channel == channel {
			return true
		}
	}
	return false
}
