package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketing-attribution/internal/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("ATTR_PG_DSN", "postgres://u:p@db:5432/attr")

	path := writeFile(t, `
http:
  addr: ":9090"
log:
  format: console
attribution:
  half_life_days: 3
  cross_device_bonus: 0.2
  channel_priors:
    whatsapp: 2
  workers: 4
storage:
  backend: postgres
  postgres_dsn: ${ATTR_PG_DSN}
kafka:
  brokers: ["kafka:9092"]
pipeline:
  enabled: true
  interval: 15m
  models: [linear, last_touch]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3.0, cfg.Attribution.HalfLifeDays)
	require.NotNil(t, cfg.Attribution.CrossDeviceBonus)
	assert.Equal(t, 0.2, *cfg.Attribution.CrossDeviceBonus)
	assert.Equal(t, 2.0, cfg.Attribution.ChannelPriors["whatsapp"])
	assert.Equal(t, 4, cfg.Attribution.Workers)
	assert.Equal(t, "postgres://u:p@db:5432/attr", cfg.Storage.PostgresDSN)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "attribution.events.raw", cfg.Kafka.Topic)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.Interval)
	assert.Equal(t, []domain.ModelKind{domain.ModelLinear, domain.ModelLastTouch}, cfg.Pipeline.Models)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, domain.AllModelKinds, cfg.Pipeline.Models)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "storage:\n  backend: sqlite\n"},
		{"postgres without dsn", "storage:\n  backend: postgres\n"},
		{"unknown model", "pipeline:\n  models: [neural]\n"},
		{"negative half life", "attribution:\n  half_life_days: -1\n"},
		{"bad yaml", "http: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
