package sink

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inventory-loader/internal/model"
)

// ScriptSink renders the PostgreSQL load as a SQL script instead of
// executing it. Piping the script into psql produces the same end state as
// the postgres sink.
type ScriptSink struct {
	out           io.Writer
	includeSchema bool
	logger        zerolog.Logger
}

// NewScriptSink creates a sink writing the script to out. With includeSchema
// the PostgreSQL DDL is emitted inside the transaction.
func NewScriptSink(out io.Writer, includeSchema bool, logger zerolog.Logger) *ScriptSink {
	return &ScriptSink{
		out:           out,
		includeSchema: includeSchema,
		logger:        logger.With().Str("component", "sink").Str("sink", "script").Logger(),
	}
}

// Name returns the sink mode.
func (s *ScriptSink) Name() string { return "script" }

// Write renders the document and writes the script to the output.
func (s *ScriptSink) Write(_ context.Context, doc *model.Document) error {
	plan, err := BuildPlan(doc)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(s.out, RenderScript(plan, s.includeSchema)); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}

	logPlan(s.logger, plan, "sql script rendered")
	return nil
}

// RenderScript renders plan as one transaction of literal SQL statements.
func RenderScript(plan *Plan, includeSchema bool) string {
	var b strings.Builder

	b.WriteString("BEGIN;\n")
	if includeSchema {
		for _, stmt := range SplitStatements(PostgresSchema()) {
			b.WriteString(stmt)
			b.WriteByte('\n')
		}
	}
	b.WriteString(TruncateStatement())
	b.WriteByte('\n')

	for _, ins := range plan.Inserts {
		values := make([]string, len(ins.Values))
		for i, v := range ins.Values {
			values[i] = Literal(v)
			if jsonColumns[ins.Columns[i]] && v != nil {
				values[i] += "::jsonb"
			}
		}
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s);\n",
			ins.Table, strings.Join(ins.Columns, ", "), strings.Join(values, ", "))
	}

	for _, stmt := range ResyncStatements() {
		b.WriteString(stmt)
		b.WriteByte('\n')
	}
	b.WriteString("COMMIT;\n")

	return b.String()
}

// Literal renders v as a PostgreSQL literal. Strings are single-quoted with
// embedded quotes doubled; nil becomes NULL.
func Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return "'" + val.UTC().Format(time.RFC3339Nano) + "'"
	default:
		return Literal(fmt.Sprint(val))
	}
}
