// Package metrics rolls attribution credits up into channel and campaign metrics.
// Every function here is pure: inputs are read-only and nothing is retained.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"marketing-attribution/internal/domain"
)

// UnknownCampaign groups touchpoints that carry no campaign id.
const UnknownCampaign = "unknown"

// groupKey identifies one output row.
type groupKey struct {
	model domain.ModelKind
	name  string
}

type totals struct {
	revenue     float64
	conversions float64
}

// accumulator holds partial sums for a slice of results. Keys are kept in
// first-seen order so merging is deterministic.
type accumulator struct {
	sums  map[groupKey]*totals
	order []groupKey
}

func newAccumulator() *accumulator {
	return &accumulator{sums: make(map[groupKey]*totals)}
}

func (a *accumulator) add(k groupKey, revenue, conversions float64) {
	t, ok := a.sums[k]
	if !ok {
		t = &totals{}
		a.sums[k] = t
		a.order = append(a.order, k)
	}
	t.revenue += revenue
	t.conversions += conversions
}

// merge folds other into a.
func (a *accumulator) merge(other *accumulator) {
	for _, k := range other.order {
		t := other.sums[k]
		a.add(k, t.revenue, t.conversions)
	}
}

// groupFunc selects the aggregation dimension of a touchpoint.
type groupFunc func(tp domain.Touchpoint) string

func byChannel(tp domain.Touchpoint) string { return tp.Channel }

func byCampaign(tp domain.Touchpoint) string {
	if tp.CampaignID == "" {
		return UnknownCampaign
	}
	return tp.CampaignID
}

// accumulate adds weight*conversion_value and weight for every credit.
// A credit whose journey or touchpoint cannot be found fails the whole call.
func accumulate(acc *accumulator, results []domain.AttributionResult, journeys map[string]domain.Journey, group groupFunc) error {
	for _, res := range results {
		j, ok := journeys[res.JourneyID]
		if !ok {
			return fmt.Errorf("%w: journey %q not found", domain.ErrUnresolvedTouchpoint, res.JourneyID)
		}
		if j.ConversionValue < 0 || math.IsNaN(j.ConversionValue) || math.IsInf(j.ConversionValue, 0) {
			return fmt.Errorf("%w: journey %q conversion_value %v", domain.ErrNegativeValue, j.JourneyID, j.ConversionValue)
		}

		index := make(map[string]int, len(j.Touchpoints))
		for i, tp := range j.Touchpoints {
			index[tp.ID] = i
		}

		for _, c := range res.Credits {
			i, ok := index[c.TouchpointID]
			if !ok {
				return fmt.Errorf("%w: touchpoint %q not in journey %q",
					domain.ErrUnresolvedTouchpoint, c.TouchpointID, res.JourneyID)
			}
			k := groupKey{model: res.ModelKind, name: group(j.Touchpoints[i])}
			acc.add(k, c.Weight*j.ConversionValue, c.Weight)
		}
	}
	return nil
}

func validateSpend(spend map[string]float64) error {
	for name, s := range spend {
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: spend for %q is %v", domain.ErrNegativeValue, name, s)
		}
	}
	return nil
}

// rows turns an accumulator into sorted (model, name) rows. Names present in
// spend but never credited are emitted with zero revenue for every model seen.
func rows(acc *accumulator, spend map[string]float64) []groupKey {
	models := make(map[domain.ModelKind]struct{})
	for _, k := range acc.order {
		models[k.model] = struct{}{}
	}
	for m := range models {
		for name := range spend {
			k := groupKey{model: m, name: name}
			if _, ok := acc.sums[k]; !ok {
				acc.add(k, 0, 0)
			}
		}
	}

	keys := make([]groupKey, len(acc.order))
	copy(keys, acc.order)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].model != keys[j].model {
			return keys[i].model < keys[j].model
		}
		return keys[i].name < keys[j].name
	})
	return keys
}

func channelMetrics(acc *accumulator, spend map[string]float64) []domain.ChannelMetric {
	keys := rows(acc, spend)
	out := make([]domain.ChannelMetric, len(keys))
	for i, k := range keys {
		t := acc.sums[k]
		s := spend[k.name]
		out[i] = domain.ChannelMetric{
			Channel:               k.name,
			ModelKind:             k.model,
			AttributedRevenue:     t.revenue,
			AttributedConversions: t.conversions,
			Spend:                 s,
			ROAS:                  ROAS(t.revenue, s),
		}
	}
	return out
}

// Aggregate rolls results up per (model_kind, channel).
// The sum of AttributedConversions across channels of one model equals the
// number of results of that model, since every result's weights sum to 1.
func Aggregate(results []domain.AttributionResult, journeys map[string]domain.Journey, spend map[string]float64) ([]domain.ChannelMetric, error) {
	if err := validateSpend(spend); err != nil {
		return nil, err
	}

	acc := newAccumulator()
	if err := accumulate(acc, results, journeys, byChannel); err != nil {
		return nil, err
	}
	return channelMetrics(acc, spend), nil
}

// AggregateCampaigns rolls results up per (model_kind, campaign_id).
// Touchpoints without a campaign are grouped under UnknownCampaign.
func AggregateCampaigns(results []domain.AttributionResult, journeys map[string]domain.Journey, spend map[string]float64) ([]domain.CampaignMetric, error) {
	if err := validateSpend(spend); err != nil {
		return nil, err
	}

	acc := newAccumulator()
	if err := accumulate(acc, results, journeys, byCampaign); err != nil {
		return nil, err
	}

	keys := rows(acc, spend)
	out := make([]domain.CampaignMetric, len(keys))
	for i, k := range keys {
		t := acc.sums[k]
		s := spend[k.name]
		out[i] = domain.CampaignMetric{
			CampaignID:            k.name,
			ModelKind:             k.model,
			AttributedRevenue:     t.revenue,
			AttributedConversions: t.conversions,
			Spend:                 s,
			ROAS:                  ROAS(t.revenue, s),
		}
	}
	return out, nil
}

// AggregateParallel is Aggregate over contiguous chunks of results, one
// partial accumulator per worker, merged in chunk order by a single
// reduction pass. Output is deterministic for a fixed worker count.
func AggregateParallel(results []domain.AttributionResult, journeys map[string]domain.Journey, spend map[string]float64, workers int) ([]domain.ChannelMetric, error) {
	if workers <= 1 || len(results) < 2 {
		return Aggregate(results, journeys, spend)
	}
	if err := validateSpend(spend); err != nil {
		return nil, err
	}
	if workers > len(results) {
		workers = len(results)
	}

	chunk := (len(results) + workers - 1) / workers
	partials := make([]*accumulator, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(results) {
			hi = len(results)
		}
		partials[w] = newAccumulator()
		if lo >= hi {
			continue
		}

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			errs[w] = accumulate(partials[w], results[lo:hi], journeys, byChannel)
		}(w, lo, hi)
	}
	wg.Wait()

	total := newAccumulator()
	for w := range partials {
		if errs[w] != nil {
			return nil, errs[w]
		}
		total.merge(partials[w])
	}
	return channelMetrics(total, spend), nil
}

// IndexJourneys keys journeys by id for Aggregate. Credits are resolved by
// journey id, so two journeys sharing an id are rejected with ErrInvalidJourney.
func IndexJourneys(journeys []domain.Journey) (map[string]domain.Journey, error) {
	out := make(map[string]domain.Journey, len(journeys))
	for _, j := range journeys {
		if _, dup := out[j.JourneyID]; dup {
			return nil, fmt.Errorf("%w: duplicate journey_id %q", domain.ErrInvalidJourney, j.JourneyID)
		}
		out[j.JourneyID] = j
	}
	return out, nil
}
