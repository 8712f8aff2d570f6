// Package engine validates journeys and runs attribution models over them.
// The engine is stateless: it keeps no reference to inputs or results.
package engine

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"marketing-attribution/internal/attribution"
	"marketing-attribution/internal/domain"
)

// Engine computes attribution results.
type Engine struct {
	defaults domain.Options
	workers  int
}

// Options contains configuration for creating an Engine.
type Options struct {
	// Defaults are deployment-level model options. Per-call options override them.
	Defaults domain.Options
	// Workers bounds ComputeBatch parallelism. Default: GOMAXPROCS.
	Workers int
}

// New creates an Engine.
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{defaults: opts.Defaults, workers: workers}
}

// Compute runs model kind against one journey.
// Steps:
//  1. Validate the journey (ErrInvalidJourney, ErrNegativeValue)
//  2. Build the model via attribution.New (ErrUnknownModelKind, ErrInvalidOptions)
//  3. Credit touchpoints and attach the model confidence
func (e *Engine) Compute(j *domain.Journey, kind domain.ModelKind, opts domain.Options) (domain.AttributionResult, error) {
	if err := j.Validate(); err != nil {
		return domain.AttributionResult{}, err
	}

	model, err := attribution.New(kind, e.merge(opts))
	if err != nil {
		return domain.AttributionResult{}, err
	}

	return run(model, j), nil
}

// ComputeBatch runs model kind against every journey. Results are returned in
// input order. Journeys are independent, so they are credited in parallel;
// each worker writes only its own result slot.
// When several journeys are invalid, the error of the lowest index is returned.
func (e *Engine) ComputeBatch(journeys []domain.Journey, kind domain.ModelKind, opts domain.Options) ([]domain.AttributionResult, error) {
	model, err := attribution.New(kind, e.merge(opts))
	if err != nil {
		return nil, err
	}

	results := make([]domain.AttributionResult, len(journeys))
	errs := make([]error, len(journeys))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range journeys {
		i := i
		g.Go(func() error {
			j := &journeys[i]
			if err := j.Validate(); err != nil {
				errs[i] = err
				return nil
			}
			results[i] = run(model, j)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("journey %d: %w", i, err)
		}
	}
	return results, nil
}

// ComputeAll runs every supported model against the journeys, keyed by model kind.
func (e *Engine) ComputeAll(journeys []domain.Journey, opts domain.Options) (map[domain.ModelKind][]domain.AttributionResult, error) {
	out := make(map[domain.ModelKind][]domain.AttributionResult, len(domain.AllModelKinds))
	for _, kind := range domain.AllModelKinds {
		results, err := e.ComputeBatch(journeys, kind, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		out[kind] = results
	}
	return out, nil
}

func run(model attribution.Model, j *domain.Journey) domain.AttributionResult {
	return domain.AttributionResult{
		JourneyID:  j.JourneyID,
		ModelKind:  model.Kind(),
		Credits:    model.Credit(j),
		Confidence: model.Confidence(j),
	}
}

// merge overlays per-call options on the engine defaults.
func (e *Engine) merge(opts domain.Options) domain.Options {
	out := domain.Options{
		HalfLifeDays:     e.defaults.HalfLifeDays,
		CrossDeviceBonus: e.defaults.CrossDeviceBonus,
	}
	if opts.HalfLifeDays != 0 {
		out.HalfLifeDays = opts.HalfLifeDays
	}
	if opts.CrossDeviceBonus != nil {
		out.CrossDeviceBonus = opts.CrossDeviceBonus
	}

	if len(e.defaults.ChannelPriors)+len(opts.ChannelPriors) > 0 {
		out.ChannelPriors = make(map[string]float64, len(e.defaults.ChannelPriors)+len(opts.ChannelPriors))
		for ch, p := range e.defaults.ChannelPriors {
			out.ChannelPriors[ch] = p
		}
		for ch, p := range opts.ChannelPriors {
			out.ChannelPriors[ch] = p
		}
	}
	return out
}
