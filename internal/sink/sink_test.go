package sink

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-loader/internal/config"
	"inventory-loader/internal/model"
)

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

// sampleDocument has two sections: one populated, one empty.
func sampleDocument() *model.Document {
	return &model.Document{
		Batch: model.ImportBatch{
			SourcePath:   "data/servers.csv",
			SourceSHA256: strings.Repeat("ab", 32),
			ImportedAt:   time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC),
			RowCount:     4,
		},
		Sections: []*model.ChainSection{
			{
				RowNumber: 1,
				Name:      "Zone A",
				Slug:      "zone-a",
				Labels:    []model.ColumnLabel{{ColumnIndex: 11, Label: "CPU Label"}},
				Servers: []*model.ServerRecord{
					{
						RowNumber:     2,
						ServerID:      "srv-1",
						Network:       strPtr("mainnet"),
						TotalCPUVCore: floatPtr(8),
						TotalMemoryGB: floatPtr(64),
						RawRow:        map[string]string{"c00": "srv-1", "c01": "mainnet", "c12": "O'Reilly"},
						Metrics: []model.ServerMetric{
							{ColumnIndex: 11, ColumnLabel: strPtr("CPU Label"), ValueText: "85", ValueNumeric: floatPtr(85)},
							{ColumnIndex: 12, ValueText: "O'Reilly"},
						},
					},
				},
				Totals: []*model.SectionTotals{
					{RowNumber: 3, TotalCPUVCore: floatPtr(16), TotalMemoryGB: floatPtr(128), TotalStorageTB: floatPtr(4)},
				},
			},
			{
				RowNumber: 4,
				Name:      "Zone B",
				Slug:      "zone-b",
			},
		},
	}
}

func TestNew(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name     string
		cfg      config.SinkConfig
		out      *bytes.Buffer
		wantName string
		wantErr  bool
	}{
		{name: "sqlite", cfg: config.SinkConfig{Mode: config.SinkModeSQLite, SQLite: config.SQLiteConfig{Path: "x.db"}}, wantName: "sqlite"},
		{name: "postgres", cfg: config.SinkConfig{Mode: config.SinkModePostgres}, wantName: "postgres"},
		{name: "script", cfg: config.SinkConfig{Mode: config.SinkModeScript}, out: &bytes.Buffer{}, wantName: "script"},
		{name: "script without writer", cfg: config.SinkConfig{Mode: config.SinkModeScript}, wantErr: true},
		{name: "unknown mode", cfg: config.SinkConfig{Mode: "mysql"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Sink
			var err error
			if tt.out != nil {
				s, err = New(&tt.cfg, tt.out, logger)
			} else {
				s, err = New(&tt.cfg, nil, logger)
			}
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, s.Name())
		})
	}
}

func TestDialect_InsertSQL(t *testing.T) {
	ins := Insert{
		Table:   TableInventory,
		Columns: []string{"id", "server_id", "raw_row_json"},
		Values:  []any{int64(1), "srv-1", "{}"},
	}

	assert.Equal(t,
		"INSERT INTO server_inventory (id, server_id, raw_row_json) VALUES (?, ?, ?)",
		sqliteDialect.insertSQL(ins))
	assert.Equal(t,
		"INSERT INTO server_inventory (id, server_id, raw_row_json) VALUES ($1, $2, $3::jsonb)",
		postgresDialect.insertSQL(ins))
}

func TestSQLiteDialect_BindsTimeAsText(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("KST", 9*3600))
	assert.Equal(t, "2026-03-01T00:30:00Z", sqliteDialect.bind(ts))
	assert.Equal(t, int64(7), sqliteDialect.bind(int64(7)))
}

// recorder collects the statements a fake connection receives.
type recorder struct {
	mu    sync.Mutex
	stmts []string
	args  map[string][]driver.NamedValue
}

func (r *recorder) add(stmt string, args []driver.NamedValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = append(r.stmts, stmt)
	if r.args == nil {
		r.args = make(map[string][]driver.NamedValue)
	}
	if len(args) > 0 {
		if _, ok := r.args[stmt]; !ok {
			r.args[stmt] = args
		}
	}
}

func (r *recorder) statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stmts...)
}

// fakeConnector is a database/sql connector that records statements
// instead of talking to a server.
type fakeConnector struct {
	rec     *recorder
	pingErr error
	failOn  string
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	return &fakeConn{c: c}, nil
}

func (c *fakeConnector) Driver() driver.Driver { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("fake driver opens through its connector")
}

type fakeConn struct {
	c *fakeConnector
}

func (f *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) Begin() (driver.Tx, error) {
	f.c.rec.add("BEGIN", nil)
	return &fakeTx{c: f.c}, nil
}

func (f *fakeConn) Ping(context.Context) error { return f.c.pingErr }

func (f *fakeConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	f.c.rec.add(query, args)
	if f.c.failOn != "" && strings.HasPrefix(query, f.c.failOn) {
		return nil, errors.New("constraint violation")
	}
	return driver.RowsAffected(1), nil
}

type fakeTx struct {
	c *fakeConnector
}

func (t *fakeTx) Commit() error {
	t.c.rec.add("COMMIT", nil)
	return nil
}

func (t *fakeTx) Rollback() error {
	t.c.rec.add("ROLLBACK", nil)
	return nil
}

// useFakeDB routes sqlOpen to connector for the duration of the test.
func useFakeDB(t *testing.T, connector *fakeConnector) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(driverName, _ string) (*sql.DB, error) {
		if driverName != defaultDriver {
			return nil, errors.New("unexpected driver " + driverName)
		}
		return sql.OpenDB(connector), nil
	}
	t.Cleanup(func() { sqlOpen = orig })
}
