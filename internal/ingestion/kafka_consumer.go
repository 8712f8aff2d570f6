package ingestion

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/observability"
)

// EventSink accepts decoded events. *Tracker is the production sink.
type EventSink interface {
	Track(ctx context.Context, e *domain.TrackedEvent) (TrackResult, error)
}

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures KafkaConsumer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaConsumer feeds TrackedEvent JSON messages from a topic into a sink.
// Undecodable and rejected messages are logged and committed so a bad
// message cannot stall the partition.
type KafkaConsumer struct {
	reader  messageReader
	sink    EventSink
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewKafkaConsumer creates a consumer-group reader for cfg.
func NewKafkaConsumer(cfg KafkaConfig, sink EventSink, metrics *observability.Metrics, logger zerolog.Logger) *KafkaConsumer {
	topic := cfg.Topic
	if topic == "" {
		topic = "attribution.events.raw"
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return newKafkaConsumer(reader, sink, metrics, logger.With().Str("topic", topic).Logger())
}

func newKafkaConsumer(r messageReader, sink EventSink, metrics *observability.Metrics, logger zerolog.Logger) *KafkaConsumer {
	return &KafkaConsumer{reader: r, sink: sink, metrics: metrics, logger: logger}
}

// Run consumes until ctx is cancelled.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	c.logger.Info().Msg("kafka consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info().Msg("kafka consumer stopped")
				return ctx.Err()
			}
			c.logger.Error().Err(err).Msg("fetch message failed")
			continue
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("commit message failed")
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message) {
	var e domain.TrackedEvent
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		c.metrics.RecordEventError("kafka", "decode")
		c.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("decode message failed")
		return
	}
	if _, err := c.sink.Track(ctx, &e); err != nil {
		c.metrics.RecordEventError("kafka", "rejected")
		c.logger.Error().Err(err).Str("event_id", e.EventID).Msg("track event failed")
	}
}

// Close closes the underlying reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
