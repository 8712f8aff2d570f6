package clickhouse

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestConn starts a throwaway ClickHouse with the metric_snapshots schema.
// The container is removed when the test ends.
func newTestConn(t *testing.T) *Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env:          map[string]string{"CLICKHOUSE_DB": "attribution"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready for connections").WithStartupTimeout(time.Minute),
				wait.ForListeningPort("9000/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "start clickhouse")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	conn, err := NewConn(ctx, fmt.Sprintf("clickhouse://%s:%s/attribution", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	applySchema(t, conn)
	return conn
}

// applySchema runs the migration files from disk. Each file holds one
// statement.
func applySchema(t *testing.T, conn *Conn) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	// internal/storage/clickhouse -> internal/storage/migrations/clickhouse
	dir := filepath.Join(wd, "..", "migrations", "clickhouse")

	files, err := fs.Glob(os.DirFS(dir), "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no migrations in %s", dir)

	for _, name := range files {
		stmt, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, conn.Exec(context.Background(), string(stmt)), "apply %s", name)
	}
}

func ptr[T any](v T) *T {
	return &v
}
