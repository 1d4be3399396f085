// Package service orchestrates a load: fetch the source document, normalize
// it, hand it to the sink and record the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inventory-loader/internal/metrics"
	"inventory-loader/internal/model"
	"inventory-loader/internal/parser"
	"inventory-loader/internal/sink"
	"inventory-loader/internal/source"
)

// ErrNoSink is returned by Run when the loader was built without a sink.
var ErrNoSink = errors.New("no sink configured")

// Result is the outcome of one successful load.
type Result struct {
	RunID     string
	Sink      string
	Document  *model.Document
	Status    *model.ServerStatus
	StartedAt time.Time
	Duration  time.Duration
}

// Loader runs the fetch, parse and write steps of a load.
type Loader struct {
	fetcher  source.Fetcher
	sink     sink.Sink
	recorder *metrics.Recorder
	now      func() time.Time
	logger   zerolog.Logger
}

// LoaderOption is a functional option for configuring a Loader.
type LoaderOption func(*Loader)

// WithRecorder records load metrics on r.
func WithRecorder(r *metrics.Recorder) LoaderOption {
	return func(l *Loader) {
		l.recorder = r
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader creates a Loader. s may be nil when only Parse is used.
func NewLoader(fetcher source.Fetcher, s sink.Sink, logger zerolog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher: fetcher,
		sink:    s,
		now:     time.Now,
		logger:  logger.With().Str("component", "loader").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Parse fetches and normalizes the document at location without writing it.
func (l *Loader) Parse(ctx context.Context, location string) (*model.Document, error) {
	return l.parse(ctx, location, l.logger)
}

func (l *Loader) parse(ctx context.Context, location string, logger zerolog.Logger) (*model.Document, error) {
	content, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	logger.Debug().Int("bytes", len(content)).Msg("source fetched")

	doc, err := parser.Parse(content, location, l.now())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", location, err)
	}

	counts := doc.Counts()
	logger.Info().
		Int("rows", doc.Batch.RowCount).
		Int("sections", counts.Sections).
		Int("servers", counts.Servers).
		Int("metrics", counts.Metrics).
		Int("totals", counts.Totals).
		Str("sha256", doc.Batch.SourceSHA256).
		Msg("document parsed")

	return doc, nil
}

// Run executes a complete load of the document at location. The document
// is fully parsed before the sink is touched, so a malformed document
// leaves the destination as it was.
func (l *Loader) Run(ctx context.Context, location string) (*Result, error) {
	if l.sink == nil {
		return nil, ErrNoSink
	}

	runID := uuid.NewString()
	logger := l.logger.With().Str("run_id", runID).Logger()
	start := l.now()

	logger.Info().
		Str("source", location).
		Str("sink", l.sink.Name()).
		Msg("starting load")

	doc, err := l.parse(ctx, location, logger)
	if err != nil {
		l.fail(logger, start, err)
		return nil, err
	}

	if err := l.sink.Write(ctx, doc); err != nil {
		err = fmt.Errorf("failed to write to %s: %w", l.sink.Name(), err)
		l.fail(logger, start, err)
		return nil, err
	}

	finished := l.now()
	result := &Result{
		RunID:     runID,
		Sink:      l.sink.Name(),
		Document:  doc,
		Status:    model.NewServerStatus(doc, finished),
		StartedAt: start,
		Duration:  finished.Sub(start),
	}

	if l.recorder != nil {
		l.recorder.ObserveDocument(doc)
		l.recorder.ObserveSuccess(result.Duration, finished)
	}

	logger.Info().
		Int("idc_count", result.Status.Summary.IDCCount).
		Int("total_servers", result.Status.Summary.TotalServers).
		Dur("duration", result.Duration).
		Msg("load completed")

	return result, nil
}

func (l *Loader) fail(logger zerolog.Logger, start time.Time, err error) {
	if l.recorder != nil {
		l.recorder.ObserveFailure(l.now().Sub(start))
	}
	logger.Error().Err(err).Msg("load failed")
}
