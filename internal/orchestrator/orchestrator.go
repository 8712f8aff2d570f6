// Package orchestrator runs the periodic attribution pipeline.
// It coordinates: tracked events → journeys → attribution → channel metrics → snapshots
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/engine"
	"marketing-attribution/internal/idhash"
	"marketing-attribution/internal/ingestion"
	"marketing-attribution/internal/metrics"
	"marketing-attribution/internal/observability"
	"marketing-attribution/internal/storage"
)

// Orchestrator coordinates the pipeline execution.
type Orchestrator struct {
	// Stores
	eventStore    storage.EventStore
	spendStore    storage.SpendStore
	snapshotStore storage.MetricSnapshotStore

	engine   *engine.Engine
	models   []domain.ModelKind
	window   time.Duration
	lookback time.Duration
	interval time.Duration
	workers  int

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	EventStore storage.EventStore
	Engine     *engine.Engine

	// Optional; without a SpendStore all spend is zero, without a
	// SnapshotStore results are computed but not persisted.
	SpendStore    storage.SpendStore
	SnapshotStore storage.MetricSnapshotStore

	Models   []domain.ModelKind // default: every model
	Window   time.Duration      // conversion window ending at now; default 30 days
	Lookback time.Duration      // history loaded before the window start; default = Window
	Interval time.Duration      // Run period; default 1h
	Workers  int                // aggregation parallelism; default 1

	Metrics *observability.Metrics
	Logger  zerolog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		eventStore:    opts.EventStore,
		spendStore:    opts.SpendStore,
		snapshotStore: opts.SnapshotStore,
		engine:        opts.Engine,
		models:        opts.Models,
		window:        opts.Window,
		lookback:      opts.Lookback,
		interval:      opts.Interval,
		workers:       opts.Workers,
		metrics:       opts.Metrics,
		logger:        opts.Logger.With().Str("component", "orchestrator").Logger(),
	}
	if len(o.models) == 0 {
		o.models = domain.AllModelKinds
	}
	if o.window <= 0 {
		o.window = 30 * 24 * time.Hour
	}
	if o.lookback <= 0 {
		o.lookback = o.window
	}
	if o.interval <= 0 {
		o.interval = time.Hour
	}
	return o
}

// ModelRun is the outcome of one model over the window.
type ModelRun struct {
	RunID          string                  `json:"run_id"`
	ModelKind      domain.ModelKind        `json:"model_kind"`
	MeanConfidence float64                 `json:"mean_confidence"`
	Channels       []domain.ChannelMetric  `json:"channels"`
	Campaigns      []domain.CampaignMetric `json:"campaigns"`
}

// RunResult contains results from one pipeline execution.
type RunResult struct {
	WindowStart     time.Time  `json:"window_start"`
	WindowEnd       time.Time  `json:"window_end"`
	Journeys        int        `json:"journeys"`
	Runs            []ModelRun `json:"runs"`
	SnapshotsStored int        `json:"snapshots_stored"`
}

// LoadJourneys assembles journeys whose conversion time is in [from, to).
// Events are read from lookback before from so journeys that started
// earlier keep their first touches.
func (o *Orchestrator) LoadJourneys(ctx context.Context, from, to time.Time) ([]domain.Journey, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("window [%s, %s): %w", from, to, storage.ErrInvalidInput)
	}

	t0 := time.Now()
	events, err := o.eventStore.GetByTimeRange(ctx, from.Add(-o.lookback).UnixMilli(), to.UnixMilli())
	o.metrics.RecordDBQuery("events", "get_by_time_range", time.Since(t0).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	journeys := InWindow(ingestion.Assemble(events), from, to)
	o.metrics.RecordAssembled(len(journeys))
	return journeys, nil
}

// InWindow keeps journeys whose conversion time is in [from, to).
// A zero bound is open.
func InWindow(journeys []domain.Journey, from, to time.Time) []domain.Journey {
	out := make([]domain.Journey, 0, len(journeys))
	for i := range journeys {
		if len(journeys[i].Touchpoints) == 0 {
			// Validation reports these; keep them so it can.
			out = append(out, journeys[i])
			continue
		}
		t := journeys[i].ConversionTime()
		if !from.IsZero() && t.Before(from) {
			continue
		}
		if !to.IsZero() && !t.Before(to) {
			continue
		}
		out = append(out, journeys[i])
	}
	return out
}

// SpendFor totals spend per channel and per campaign over [from, to).
func (o *Orchestrator) SpendFor(ctx context.Context, from, to time.Time) (map[string]float64, map[string]float64, error) {
	if o.spendStore == nil {
		return map[string]float64{}, map[string]float64{}, nil
	}
	fromDay, toDay := storage.DayRange(from, to)

	channels, err := o.spendStore.SumByChannel(ctx, fromDay, toDay)
	if err != nil {
		return nil, nil, fmt.Errorf("sum spend by channel: %w", err)
	}
	campaigns, err := o.spendStore.SumByCampaign(ctx, fromDay, toDay)
	if err != nil {
		return nil, nil, fmt.Errorf("sum spend by campaign: %w", err)
	}
	return channels, campaigns, nil
}

// RunOnce executes the pipeline for [now-window, now).
// Phases:
//  1. Load events and assemble journeys
//  2. Load window spend
//  3. Attribute and aggregate per model
//  4. Persist channel snapshots
func (o *Orchestrator) RunOnce(ctx context.Context, now time.Time) (*RunResult, error) {
	start := time.Now()
	to := now.UTC()
	from := to.Add(-o.window)
	result := &RunResult{WindowStart: from, WindowEnd: to}

	// Phase 1: Journeys
	journeys, err := o.LoadJourneys(ctx, from, to)
	if err != nil {
		o.metrics.RecordPipelineRun("load", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("phase 1 (load journeys) failed: %w", err)
	}
	result.Journeys = len(journeys)
	o.logger.Info().Int("journeys", len(journeys)).Time("from", from).Time("to", to).Msg("journeys assembled")

	// Phase 2: Spend
	channelSpend, campaignSpend, err := o.SpendFor(ctx, from, to)
	if err != nil {
		o.metrics.RecordPipelineRun("spend", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("phase 2 (load spend) failed: %w", err)
	}

	// Phase 3: Attribution
	index, err := metrics.IndexJourneys(journeys)
	if err != nil {
		o.metrics.RecordPipelineRun("attribute", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("phase 3 (index journeys) failed: %w", err)
	}
	var snaps []*domain.MetricSnapshot
	for _, kind := range o.models {
		run, err := o.attribute(journeys, index, kind, channelSpend, campaignSpend)
		if err != nil {
			o.metrics.RecordPipelineRun("attribute", "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("phase 3 (attribute %s) failed: %w", kind, err)
		}
		run.RunID = idhash.RunID(kind, from, to)
		result.Runs = append(result.Runs, run)

		for _, m := range run.Channels {
			snaps = append(snaps, &domain.MetricSnapshot{
				RunID:       run.RunID,
				WindowStart: from.UnixMilli(),
				WindowEnd:   to.UnixMilli(),
				ComputedAt:  now.UnixMilli(),
				Metric:      m,
			})
		}
	}

	// Phase 4: Persist
	if o.snapshotStore != nil && len(snaps) > 0 {
		t0 := time.Now()
		err := o.snapshotStore.InsertBulk(ctx, snaps)
		o.metrics.RecordDBQuery("snapshots", "insert_bulk", time.Since(t0).Seconds(), err)
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			// Same window already persisted; results are identical.
			o.logger.Info().Time("to", to).Msg("snapshots already stored for window")
		case err != nil:
			o.metrics.RecordPipelineRun("persist", "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("phase 4 (persist snapshots) failed: %w", err)
		default:
			result.SnapshotsStored = len(snaps)
		}
	}

	o.metrics.RecordPipelineRun("run", "ok", time.Since(start).Seconds())
	o.metrics.SetPipelineSuccess(now.Unix())
	o.logger.Info().
		Int("journeys", result.Journeys).
		Int("models", len(result.Runs)).
		Int("snapshots", result.SnapshotsStored).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline completed")
	return result, nil
}

func (o *Orchestrator) attribute(journeys []domain.Journey, index map[string]domain.Journey, kind domain.ModelKind, channelSpend, campaignSpend map[string]float64) (ModelRun, error) {
	t0 := time.Now()
	results, err := o.engine.ComputeBatch(journeys, kind, domain.Options{})
	o.metrics.RecordAttribution(string(kind), len(journeys), time.Since(t0).Seconds(), err)
	if err != nil {
		return ModelRun{}, err
	}

	channels, err := metrics.AggregateParallel(results, index, channelSpend, o.workers)
	if err != nil {
		return ModelRun{}, err
	}
	campaigns, err := metrics.AggregateCampaigns(results, index, campaignSpend)
	if err != nil {
		return ModelRun{}, err
	}

	return ModelRun{
		ModelKind:      kind,
		MeanConfidence: metrics.MeanConfidence(results),
		Channels:       channels,
		Campaigns:      campaigns,
	}, nil
}

// Run executes RunOnce every interval until ctx is cancelled. Failed runs
// are logged; the next tick retries.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	o.logger.Info().Dur("interval", o.interval).Dur("window", o.window).Msg("pipeline scheduler started")
	for {
		if _, err := o.RunOnce(ctx, time.Now()); err != nil {
			o.logger.Error().Err(err).Msg("pipeline run failed")
		}
		select {
		case <-ctx.Done():
			o.logger.Info().Msg("pipeline scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
