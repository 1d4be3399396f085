package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/rs/zerolog"

	"inventory-loader/internal/config"
	"inventory-loader/internal/model"
)

const defaultDriver = "pgx"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// PostgresSink replaces the inventory tables of a PostgreSQL database in a
// single transaction.
type PostgresSink struct {
	dsn         string
	timeout     time.Duration
	applySchema bool
	logger      zerolog.Logger
}

// NewPostgresSink creates a sink for the database at cfg.DSN.
func NewPostgresSink(cfg *config.PostgresConfig, logger zerolog.Logger) *PostgresSink {
	return &PostgresSink{
		dsn:         cfg.DSN,
		timeout:     cfg.Timeout,
		applySchema: cfg.ApplySchema,
		logger:      logger.With().Str("component", "sink").Str("sink", "postgres").Logger(),
	}
}

// Name returns the sink mode.
func (s *PostgresSink) Name() string { return "postgres" }

// Write truncates the six inventory tables, inserts the document with
// explicit identifiers and moves each id sequence past the loaded rows.
// Any failure rolls the whole load back.
func (s *PostgresSink) Write(ctx context.Context, doc *model.Document) (retErr error) {
	plan, err := BuildPlan(doc)
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := connectionLogger(s.logger, s.dsn)

	openMu.Lock()
	db, err := sqlOpen(defaultDriver, s.dsn)
	openMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: open postgres: %w", ErrUnreachable, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping postgres: %w", ErrUnreachable, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Warn().Err(rbErr).Msg("rollback failed")
			}
		}
	}()

	if s.applySchema {
		if err := execStatements(ctx, tx, SplitStatements(PostgresSchema())); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err := execStatements(ctx, tx, []string{TruncateStatement()}); err != nil {
		return err
	}

	if err := execPlan(ctx, tx, plan, postgresDialect); err != nil {
		return err
	}

	if err := execStatements(ctx, tx, ResyncStatements()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logPlan(logger, plan, "postgres tables replaced")
	return nil
}

// TruncateStatement empties every inventory table and resets their identities.
func TruncateStatement() string {
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", strings.Join(truncateOrder, ", "))
}

// ResyncStatements move each table's id sequence to the highest loaded id
// so later inserts without explicit ids do not collide.
func ResyncStatements() []string {
	stmts := make([]string, 0, len(Tables))
	for _, table := range Tables {
		stmts = append(stmts, fmt.Sprintf(
			"SELECT setval('%s_id_seq', (SELECT COALESCE(MAX(id), 1) FROM %s));", table, table))
	}
	return stmts
}

// connectionLogger adds the target host, port and database to logger.
// A DSN pgx cannot parse is left to the driver to reject.
func connectionLogger(logger zerolog.Logger, dsn string) zerolog.Logger {
	pgCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to parse dsn for log fields")
		return logger
	}
	return logger.With().
		Str("host", pgCfg.Host).
		Uint16("port", pgCfg.Port).
		Str("database", pgCfg.Database).
		Logger()
}
