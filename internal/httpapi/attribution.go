package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/metrics"
	"marketing-attribution/internal/orchestrator"
)

type computeRequest struct {
	Journey   domain.Journey   `json:"journey"`
	ModelKind domain.ModelKind `json:"model_kind"`
	Options   domain.Options   `json:"options"`
}

type batchRequest struct {
	Journeys  []domain.Journey `json:"journeys"`
	ModelKind domain.ModelKind `json:"model_kind"`
	Options   domain.Options   `json:"options"`
}

type batchResponse struct {
	Results []domain.AttributionResult `json:"results"`
}

// aggregateRequest omits journeys to assemble them from tracked events,
// and omits spend to read it from the spend store.
type aggregateRequest struct {
	Journeys  *[]domain.Journey  `json:"journeys"`
	ModelKind domain.ModelKind   `json:"model_kind"`
	Options   domain.Options     `json:"options"`
	Spend     map[string]float64 `json:"spend"`
	From      json.RawMessage    `json:"from"`
	To        json.RawMessage    `json:"to"`
}

type aggregateResponse struct {
	Metrics []domain.ChannelMetric `json:"metrics"`
}

type compareRequest struct {
	Journeys []domain.Journey   `json:"journeys"`
	Options  domain.Options     `json:"options"`
	Spend    map[string]float64 `json:"spend"`
}

type modelComparison struct {
	ModelKind      domain.ModelKind       `json:"model_kind"`
	MeanConfidence float64                `json:"mean_confidence"`
	Metrics        []domain.ChannelMetric `json:"metrics"`
}

type compareResponse struct {
	Models  []modelComparison     `json:"models"`
	Summary domain.JourneySummary `json:"summary"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	res, err := s.engine.Compute(&req.Journey, req.ModelKind, req.Options)
	s.metrics.RecordAttribution(string(req.ModelKind), 1, time.Since(start).Seconds(), err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	results, err := s.computeBatch(req.Journeys, req.ModelKind, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	from, err := parseTime("from", req.From)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := parseTime("to", req.To)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var journeys []domain.Journey
	spend := req.Spend
	if req.Journeys != nil {
		journeys = orchestrator.InWindow(*req.Journeys, from, to)
	} else {
		from, to = s.storeWindow(from, to)
		journeys, spend, err = s.fromStore(r.Context(), from, to, spend)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	index, err := metrics.IndexJourneys(journeys)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := s.computeBatch(journeys, req.ModelKind, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := metrics.Aggregate(results, index, spend)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if out == nil {
		out = []domain.ChannelMetric{}
	}
	writeJSON(w, http.StatusOK, aggregateResponse{Metrics: out})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	index, err := metrics.IndexJourneys(req.Journeys)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	all, err := s.engine.ComputeAll(req.Journeys, req.Options)
	if err != nil {
		s.metrics.RecordAttribution("all", len(req.Journeys), time.Since(start).Seconds(), err)
		s.writeError(w, r, err)
		return
	}

	resp := compareResponse{Summary: metrics.Summarize(req.Journeys)}
	for _, kind := range domain.AllModelKinds {
		results := all[kind]
		s.metrics.RecordAttribution(string(kind), len(results), time.Since(start).Seconds(), nil)
		channels, err := metrics.Aggregate(results, index, req.Spend)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if channels == nil {
			channels = []domain.ChannelMetric{}
		}
		resp.Models = append(resp.Models, modelComparison{
			ModelKind:      kind,
			MeanConfidence: metrics.Round2(metrics.MeanConfidence(results)),
			Metrics:        channels,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) computeBatch(journeys []domain.Journey, kind domain.ModelKind, opts domain.Options) ([]domain.AttributionResult, error) {
	start := time.Now()
	results, err := s.engine.ComputeBatch(journeys, kind, opts)
	s.metrics.RecordAttribution(string(kind), len(journeys), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.AttributionResult{}
	}
	return results, nil
}

// storeWindow fills open bounds: to defaults to now, from to the default
// window before to.
func (s *Server) storeWindow(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-s.window)
	}
	return from, to
}

// fromStore assembles journeys for [from, to) and, unless spend was given,
// reads window spend from the spend store.
func (s *Server) fromStore(ctx context.Context, from, to time.Time, spend map[string]float64) ([]domain.Journey, map[string]float64, error) {
	if s.pipeline == nil {
		return nil, nil, fmt.Errorf("%w: journeys are required", errBadRequest)
	}
	journeys, err := s.pipeline.LoadJourneys(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}
	if spend == nil {
		spend, _, err = s.pipeline.SpendFor(ctx, from, to)
		if err != nil {
			return nil, nil, err
		}
	}
	return journeys, spend, nil
}
