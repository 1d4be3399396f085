// Package sink writes a normalized inventory document to its destination:
// an embedded SQLite file, a PostgreSQL database, or a SQL script for psql.
// Every sink replaces the previous contents wholesale.
package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inventory-loader/internal/config"
	"inventory-loader/internal/model"
)

// ErrUnreachable is returned when the destination cannot be opened or reached.
var ErrUnreachable = errors.New("destination unreachable")

// Sink is a load destination.
type Sink interface {
	// Name returns the sink mode, e.g. "sqlite".
	Name() string

	// Write replaces the destination contents with the document.
	Write(ctx context.Context, doc *model.Document) error
}

// New creates the sink selected by cfg.Mode. out receives the script in
// script mode and is ignored otherwise.
func New(cfg *config.SinkConfig, out io.Writer, logger zerolog.Logger) (Sink, error) {
	switch cfg.Mode {
	case config.SinkModeSQLite:
		return NewSQLiteSink(cfg.SQLite.Path, logger), nil
	case config.SinkModePostgres:
		return NewPostgresSink(&cfg.Postgres, logger), nil
	case config.SinkModeScript:
		if out == nil {
			return nil, fmt.Errorf("script sink requires an output writer")
		}
		return NewScriptSink(out, cfg.Script.IncludeSchema, logger), nil
	default:
		return nil, fmt.Errorf("unsupported sink mode %q", cfg.Mode)
	}
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// dialect captures how a database/sql driver wants statements written.
type dialect struct {
	placeholder func(n int) string
	column      func(column string, placeholder string) string
	bind        func(v any) any
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	column:      func(_ string, ph string) string { return ph },
	bind: func(v any) any {
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano)
		}
		return v
	},
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	column: func(column string, ph string) string {
		if jsonColumns[column] {
			return ph + "::jsonb"
		}
		return ph
	},
	bind: func(v any) any { return v },
}

// insertSQL renders a parameterized INSERT for one planned row.
func (d dialect) insertSQL(ins Insert) string {
	values := make([]string, len(ins.Columns))
	for i, col := range ins.Columns {
		values[i] = d.column(col, d.placeholder(i+1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ins.Table, strings.Join(ins.Columns, ", "), strings.Join(values, ", "))
}

// execPlan executes every planned insert in order.
func execPlan(ctx context.Context, db execer, plan *Plan, d dialect) error {
	for _, ins := range plan.Inserts {
		args := make([]any, len(ins.Values))
		for i, v := range ins.Values {
			args[i] = d.bind(v)
		}
		if _, err := db.ExecContext(ctx, d.insertSQL(ins), args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", ins.Table, err)
		}
	}
	return nil
}

// execStatements executes statements in order.
func execStatements(ctx context.Context, db execer, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}

// logPlan reports the planned row counts.
func logPlan(logger zerolog.Logger, plan *Plan, msg string) {
	ev := logger.Info()
	for _, table := range Tables {
		ev = ev.Int(table, plan.Count(table))
	}
	ev.Msg(msg)
}
