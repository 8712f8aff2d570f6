package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header
CREATE TABLE a (x String);

-- second
CREATE TABLE b (y String DEFAULT 'it''s');
`
	stmts, err := splitStatements(input)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x String)", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y String DEFAULT 'it''s')", stmts[1])
}

func TestSplitStatements_RejectsQuotedSemicolon(t *testing.T) {
	_, err := splitStatements("INSERT INTO t VALUES ('a;b');")
	assert.Error(t, err)
}

func TestLoad_OrderAndSkipEmpty(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/002_b.sql":  {Data: []byte("SELECT 2")},
		"pg/001_a.sql":  {Data: []byte("SELECT 1")},
		"pg/003_c.sql":  {Data: []byte("   \n")},
		"pg/README.txt": {Data: []byte("ignored")},
	}
	files, err := load(fsys, "pg")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_a.sql", files[0].name)
	assert.Equal(t, "002_b.sql", files[1].name)
}

func TestEmbeddedMigrationsSplit(t *testing.T) {
	files, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, m := range files {
		stmts, err := splitStatements(m.sql)
		require.NoError(t, err, m.name)
		assert.NotEmpty(t, stmts, m.name)
	}

	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.Len(t, pg, 3)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://u:p@localhost:9000/attribution")
	require.NoError(t, err)
	assert.Equal(t, "attribution", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
