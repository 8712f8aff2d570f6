package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"marketing-attribution/internal/config"
	"marketing-attribution/internal/storage"
	chstore "marketing-attribution/internal/storage/clickhouse"
	"marketing-attribution/internal/storage/memory"
	"marketing-attribution/internal/storage/migrations"
	pgstore "marketing-attribution/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	events    storage.EventStore
	spend     storage.SpendStore
	statuses  storage.PlatformStatusStore
	snapshots storage.MetricSnapshotStore
}

// createStores builds the configured backend. Postgres holds events, spend
// and platform status; metric snapshots go to ClickHouse when a DSN is set
// and to memory otherwise.
func createStores(ctx context.Context, cfg config.StorageConfig) (*allStores, func(), error) {
	if cfg.Backend == config.BackendMemory {
		return &allStores{
			events:    memory.NewEventStore(),
			spend:     memory.NewSpendStore(),
			statuses:  memory.NewPlatformStatusStore(),
			snapshots: memory.NewMetricSnapshotStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.PoolOptions{MaxConns: cfg.MaxConns})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &allStores{
		events:    pgstore.NewEventStore(pool),
		spend:     pgstore.NewSpendStore(pool),
		statuses:  pgstore.NewPlatformStatusStore(pool),
		snapshots: memory.NewMetricSnapshotStore(),
	}
	cleanup := func() { pool.Close() }

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.snapshots = chstore.NewMetricSnapshotStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	} else {
		log.Warn().Msg("no clickhouse_dsn: metric snapshots kept in memory")
	}

	return stores, cleanup, nil
}
