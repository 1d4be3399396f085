package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-loader/internal/config"
)

func newTestPostgresSink(applySchema bool) *PostgresSink {
	return NewPostgresSink(&config.PostgresConfig{
		DSN:         "postgres://loader@localhost:5432/ops?sslmode=disable",
		Timeout:     time.Minute,
		ApplySchema: applySchema,
	}, zerolog.Nop())
}

func TestPostgresSink_Write(t *testing.T) {
	rec := &recorder{}
	useFakeDB(t, &fakeConnector{rec: rec})

	s := newTestPostgresSink(false)
	assert.Equal(t, "postgres", s.Name())
	require.NoError(t, s.Write(context.Background(), sampleDocument()))

	stmts := rec.statements()
	// BEGIN, TRUNCATE, 8 inserts, 6 setval, COMMIT
	require.Len(t, stmts, 17)
	assert.Equal(t, "BEGIN", stmts[0])
	assert.Equal(t, TruncateStatement(), stmts[1])
	assert.Equal(t,
		"TRUNCATE TABLE server_metrics, server_inventory, section_totals, section_column_labels, chain_sections, import_batches RESTART IDENTITY CASCADE;",
		stmts[1])
	assert.True(t, strings.HasPrefix(stmts[2], "INSERT INTO import_batches (id, source_path"))
	assert.True(t, strings.HasPrefix(stmts[3], "INSERT INTO chain_sections"))
	assert.Equal(t, "SELECT setval('import_batches_id_seq', (SELECT COALESCE(MAX(id), 1) FROM import_batches));", stmts[10])
	assert.Equal(t, "SELECT setval('section_totals_id_seq', (SELECT COALESCE(MAX(id), 1) FROM section_totals));", stmts[15])
	assert.Equal(t, "COMMIT", stmts[16])
	assert.NotContains(t, stmts, "ROLLBACK")

	var inventoryInsert string
	for _, stmt := range stmts {
		if strings.HasPrefix(stmt, "INSERT INTO server_inventory") {
			inventoryInsert = stmt
		}
	}
	assert.Contains(t, inventoryInsert, "$15::jsonb")

	args := rec.args[stmts[2]]
	require.Len(t, args, 5)
	assert.Equal(t, int64(1), args[0].Value)
	assert.Equal(t, "data/servers.csv", args[1].Value)
	ts, ok := args[3].Value.(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestPostgresSink_AppliesSchema(t *testing.T) {
	rec := &recorder{}
	useFakeDB(t, &fakeConnector{rec: rec})

	require.NoError(t, newTestPostgresSink(true).Write(context.Background(), sampleDocument()))

	stmts := rec.statements()
	ddl := SplitStatements(PostgresSchema())
	require.Greater(t, len(stmts), len(ddl)+1)
	assert.Equal(t, "BEGIN", stmts[0])
	assert.Equal(t, ddl, stmts[1:len(ddl)+1])
	assert.Equal(t, TruncateStatement(), stmts[len(ddl)+1])
}

func TestPostgresSink_RollsBackOnFailure(t *testing.T) {
	rec := &recorder{}
	useFakeDB(t, &fakeConnector{rec: rec, failOn: "INSERT INTO server_metrics"})

	err := newTestPostgresSink(false).Write(context.Background(), sampleDocument())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server_metrics")
	assert.False(t, errors.Is(err, ErrUnreachable))

	stmts := rec.statements()
	assert.Equal(t, "ROLLBACK", stmts[len(stmts)-1])
	assert.NotContains(t, stmts, "COMMIT")
}

func TestPostgresSink_Unreachable(t *testing.T) {
	rec := &recorder{}
	useFakeDB(t, &fakeConnector{rec: rec, pingErr: errors.New("connection refused")})

	err := newTestPostgresSink(false).Write(context.Background(), sampleDocument())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
	assert.Empty(t, rec.statements())
}

func TestConnectionLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	connLogger := connectionLogger(logger, "postgres://loader@db.example:6543/inventory")
	connLogger.Info().Msg("connected")
	assert.Contains(t, buf.String(), `"host":"db.example"`)
	assert.Contains(t, buf.String(), `"port":6543`)
	assert.Contains(t, buf.String(), `"database":"inventory"`)

	buf.Reset()
	connLogger = connectionLogger(logger, "postgres://loader@db.example:notaport/inventory")
	connLogger.Info().Msg("connected")
	assert.Contains(t, buf.String(), "failed to parse dsn for log fields")
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.NotContains(t, buf.String(), `"host"`)
}

func TestResyncStatements(t *testing.T) {
	stmts := ResyncStatements()
	require.Len(t, stmts, len(Tables))
	for i, table := range Tables {
		assert.Contains(t, stmts[i], "'"+table+"_id_seq'")
	}
}
