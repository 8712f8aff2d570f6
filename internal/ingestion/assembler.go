package ingestion

import (
	"sort"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/idhash"
)

// Assemble groups events by user, orders each user's events by
// (timestamp, event_id) and cuts a journey at every conversion event.
// The conversion event is the journey's last touchpoint and supplies its
// value and currency. Events after a user's last conversion are dropped.
// Journeys are returned ordered by (conversion time, journey id).
func Assemble(events []*domain.TrackedEvent) []domain.Journey {
	byUser := make(map[string][]*domain.TrackedEvent)
	var users []string
	for _, e := range events {
		if e == nil {
			continue
		}
		if _, ok := byUser[e.UserID]; !ok {
			users = append(users, e.UserID)
		}
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}
	sort.Strings(users)

	var journeys []domain.Journey
	for _, user := range users {
		evs := byUser[user]
		sort.SliceStable(evs, func(i, j int) bool {
			if !evs[i].Timestamp.Equal(evs[j].Timestamp) {
				return evs[i].Timestamp.Before(evs[j].Timestamp)
			}
			return evs[i].EventID < evs[j].EventID
		})

		start := 0
		for i, e := range evs {
			if !e.IsConversion() {
				continue
			}
			journeys = append(journeys, buildJourney(user, evs[start:i+1]))
			start = i + 1
		}
	}

	sort.SliceStable(journeys, func(i, j int) bool {
		ti, tj := journeys[i].ConversionTime(), journeys[j].ConversionTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return journeys[i].JourneyID < journeys[j].JourneyID
	})
	return journeys
}

func buildJourney(user string, evs []*domain.TrackedEvent) domain.Journey {
	last := evs[len(evs)-1]
	j := domain.Journey{
		JourneyID:       idhash.JourneyID(user, evs[0].EventID, last.EventID),
		UserID:          user,
		ConversionValue: last.EventValue,
		Currency:        last.Currency,
		Touchpoints:     make([]domain.Touchpoint, len(evs)),
	}
	for i, e := range evs {
		j.Touchpoints[i] = domain.Touchpoint{
			ID:         e.EventID,
			Channel:    e.Channel,
			Device:     e.Device,
			OccurredAt: e.Timestamp,
			Action:     e.EventType,
			CampaignID: e.CampaignID,
			Platform:   e.Platform,
		}
	}
	return j
}
