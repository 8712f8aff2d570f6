package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketing-attribution/internal/domain"
)

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var e domain.TrackedEvent
	if err := s.decode(w, r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	if e.UserAgent == "" {
		e.UserAgent = r.UserAgent()
	}

	res, err := s.tracker.Track(r.Context(), &e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSpend(w http.ResponseWriter, r *http.Request) {
	var rec domain.SpendRecord
	if err := s.decode(w, r, &rec); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec.Channel = strings.TrimSpace(rec.Channel)
	if rec.Channel == "" {
		s.writeError(w, r, fmt.Errorf("%w: channel is required", errBadRequest))
		return
	}
	if _, err := time.Parse(time.DateOnly, rec.Day); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: day must be YYYY-MM-DD", errBadRequest))
		return
	}
	if rec.Amount < 0 {
		s.writeError(w, r, fmt.Errorf("amount %v: %w", rec.Amount, domain.ErrNegativeValue))
		return
	}

	if err := s.spend.Upsert(r.Context(), &rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "spend": rec})
}
