package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/observability"
)

// WSConfig configures WSEventSource.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the doubling backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval between ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds the wait for the next frame or pong.
	ReadTimeout time.Duration
	// WriteTimeout bounds control frame writes.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default websocket timings.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSEventSource reads TrackedEvent JSON text frames from a websocket feed
// and hands each to a sink, reconnecting with capped exponential backoff.
type WSEventSource struct {
	endpoint string
	config   WSConfig
	sink     EventSink
	metrics  *observability.Metrics
	logger   zerolog.Logger
	dialer   websocket.Dialer
}

// NewWSEventSource creates a source for endpoint. A nil config uses defaults.
func NewWSEventSource(endpoint string, config *WSConfig, sink EventSink, metrics *observability.Metrics, logger zerolog.Logger) *WSEventSource {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	return &WSEventSource{
		endpoint: endpoint,
		config:   cfg,
		sink:     sink,
		metrics:  metrics,
		logger:   logger.With().Str("endpoint", endpoint).Logger(),
		dialer:   websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run connects and consumes until ctx is cancelled.
func (s *WSEventSource) Run(ctx context.Context) error {
	delay := s.config.ReconnectDelay
	for {
		received, err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if received {
			delay = s.config.ReconnectDelay
		}
		s.metrics.RecordReconnect("websocket")
		s.logger.Warn().Err(err).Dur("delay", delay).Msg("websocket disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = nextDelay(delay, s.config.MaxReconnectDelay)
	}
}

func nextDelay(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

// session runs one connection until it fails. It reports whether any frame
// arrived so the caller can reset its backoff.
func (s *WSEventSource) session(ctx context.Context) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	s.logger.Info().Msg("websocket connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.config.WriteTimeout))
			conn.Close()
		case <-done:
		}
	}()
	go s.pingLoop(conn, done)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	received := false
	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return received, fmt.Errorf("websocket read: %w", err)
		}
		received = true
		s.handle(ctx, frame)
	}
}

func (s *WSEventSource) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (s *WSEventSource) handle(ctx context.Context, frame []byte) {
	var e domain.TrackedEvent
	if err := json.Unmarshal(frame, &e); err != nil {
		s.metrics.RecordEventError("websocket", "decode")
		s.logger.Error().Err(err).Msg("decode frame failed")
		return
	}
	if _, err := s.sink.Track(ctx, &e); err != nil {
		s.metrics.RecordEventError("websocket", "rejected")
		s.logger.Error().Err(err).Str("event_id", e.EventID).Msg("track event failed")
	}
}
