package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/metrics"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

type eventsResponse struct {
	Events []*domain.TrackedEvent `json:"events"`
	Count  int                    `json:"count"`
}

type summaryResponse struct {
	From    time.Time             `json:"from"`
	To      time.Time             `json:"to"`
	Summary domain.JourneySummary `json:"summary"`
}

// statusReport is pushed by the external provider that checks platform
// connections, e.g. {"platforms":{"meta_ads":true,"tiktok_ads":false}}.
type statusReport struct {
	Platforms map[string]bool `json:"platforms"`
}

type statusResponse struct {
	Platforms      []*domain.PlatformStatus `json:"platforms"`
	TotalConnected int                      `json:"total_connected"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = min(n, maxEventsLimit)
	}

	events, err := s.events.ListRecent(r.Context(), r.URL.Query().Get("platform"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []*domain.TrackedEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Count: len(events)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, err := parseQueryTime(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := parseQueryTime(r, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, to = s.storeWindow(from, to)

	journeys, _, err := s.fromStore(r.Context(), from, to, map[string]float64{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{From: from, To: to, Summary: metrics.Summarize(journeys)})
}

func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReport
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Platforms) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: platforms is required", errBadRequest))
		return
	}

	if _, ok := req.Platforms[""]; ok {
		s.writeError(w, r, fmt.Errorf("%w: empty platform name", errBadRequest))
		return
	}

	checkedAt := s.now().UnixMilli()
	for platform, connected := range req.Platforms {
		st := &domain.PlatformStatus{Platform: platform, Connected: connected, CheckedAt: checkedAt}
		if err := s.statuses.Upsert(r.Context(), st); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.metrics.SetPlatformConnected(platform, connected)
	}
	s.handleAccountsStatus(w, r)
}

func (s *Server) handleAccountsStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.statuses.GetAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := statusResponse{Platforms: statuses}
	if resp.Platforms == nil {
		resp.Platforms = []*domain.PlatformStatus{}
	}
	for _, st := range statuses {
		if st.Connected {
			resp.TotalConnected++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
