// Package config loads the service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"marketing-attribution/internal/domain"
)

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Log         LogConfig         `yaml:"log"`
	Attribution AttributionConfig `yaml:"attribution"`
	Storage     StorageConfig     `yaml:"storage"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// AttributionConfig holds engine defaults. Request options override them.
type AttributionConfig struct {
	domain.Options `yaml:",inline"`
	Workers        int `yaml:"workers"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	MaxConns      int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty disables redis dedupe
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"` // empty disables the consumer
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

type WebSocketConfig struct {
	URL               string        `yaml:"url"` // empty disables the source
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
}

type PipelineConfig struct {
	Enabled  bool               `yaml:"enabled"`
	Interval time.Duration      `yaml:"interval"`
	Window   time.Duration      `yaml:"window"`
	Models   []domain.ModelKind `yaml:"models"`
}

// Load reads path, expands ${ENV} references and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 10 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendMemory
	}
	if c.Storage.MaxConns == 0 {
		c.Storage.MaxConns = 10
	}
	if c.Redis.DedupTTL == 0 {
		c.Redis.DedupTTL = 24 * time.Hour
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "attribution.events.raw"
	}
	if c.Kafka.ConsumerGroup == "" {
		c.Kafka.ConsumerGroup = "attribution-tracker"
	}
	if c.WebSocket.ReconnectDelay == 0 {
		c.WebSocket.ReconnectDelay = time.Second
	}
	if c.WebSocket.MaxReconnectDelay == 0 {
		c.WebSocket.MaxReconnectDelay = 30 * time.Second
	}
	if c.Pipeline.Interval == 0 {
		c.Pipeline.Interval = time.Hour
	}
	if c.Pipeline.Window == 0 {
		c.Pipeline.Window = 30 * 24 * time.Hour
	}
	if len(c.Pipeline.Models) == 0 {
		c.Pipeline.Models = append([]domain.ModelKind(nil), domain.AllModelKinds...)
	}
}

// Validate rejects settings that would fail later at first use.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	for _, k := range c.Pipeline.Models {
		if !k.Valid() {
			return fmt.Errorf("pipeline.models: %w: %q", domain.ErrUnknownModelKind, k)
		}
	}
	if _, err := c.Attribution.Options.Resolve(); err != nil {
		return fmt.Errorf("attribution: %w", err)
	}
	return nil
}
