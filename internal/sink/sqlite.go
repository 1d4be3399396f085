package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"inventory-loader/internal/model"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteSink rebuilds a SQLite database file from scratch on every write.
type SQLiteSink struct {
	path   string
	logger zerolog.Logger
}

// NewSQLiteSink creates a sink writing to the database file at path.
func NewSQLiteSink(path string, logger zerolog.Logger) *SQLiteSink {
	return &SQLiteSink{
		path:   path,
		logger: logger.With().Str("component", "sink").Str("sink", "sqlite").Logger(),
	}
}

// Name returns the sink mode.
func (s *SQLiteSink) Name() string { return "sqlite" }

// Path returns the database file path.
func (s *SQLiteSink) Path() string { return s.path }

// Write deletes any existing file at the destination, creates the schema
// and inserts the document in one transaction.
func (s *SQLiteSink) Write(ctx context.Context, doc *model.Document) (retErr error) {
	plan, err := BuildPlan(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("%w: create dirs: %w", ErrUnreachable, err)
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove existing database: %w", ErrUnreachable, err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("%w: open sqlite: %w", ErrUnreachable, err)
	}
	defer func() { _ = db.Close() }()
	// PRAGMA foreign_keys is per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: open sqlite: %w", ErrUnreachable, err)
	}

	if err := execStatements(ctx, db, SplitStatements(SQLiteSchema())); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := execPlan(ctx, tx, plan, sqliteDialect); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logPlan(s.logger.With().Str("path", s.path).Logger(), plan, "sqlite database rebuilt")
	return nil
}
