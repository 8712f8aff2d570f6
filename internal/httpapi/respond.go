package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/storage"
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain and storage errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnresolvedTouchpoint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidJourney),
		errors.Is(err, domain.ErrInvalidOptions),
		errors.Is(err, domain.ErrNegativeValue),
		errors.Is(err, domain.ErrUnknownModelKind),
		errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg, RequestID: RequestIDFrom(r.Context())})
}

// decode reads a size-limited JSON body into dst.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}

// parseTime accepts RFC3339 or epoch milliseconds. Empty is the zero time.
func parseTime(field string, raw json.RawMessage) (time.Time, error) {
	t, err := domain.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", errBadRequest, field, err)
	}
	return t, nil
}

func parseQueryTime(r *http.Request, field string) (time.Time, error) {
	v := r.URL.Query().Get(field)
	if v == "" {
		return time.Time{}, nil
	}
	return parseTime(field, json.RawMessage(strconv.Quote(v)))
}
