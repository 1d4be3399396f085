// Package source fetches the raw bytes of the inventory export from a local
// file, an HTTP(S) URL or an S3-compatible object store.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"inventory-loader/internal/config"
)

// ErrNotFound is returned when the source document does not exist.
var ErrNotFound = errors.New("source not found")

// Fetcher retrieves a document by location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Loader dispatches a location to the fetcher for its scheme.
type Loader struct {
	cfg    config.SourceConfig
	retry  config.RetryConfig
	logger zerolog.Logger

	mu   sync.Mutex
	http Fetcher
	s3   Fetcher
}

// New creates a Loader. Remote clients are created on first use.
func New(cfg *config.SourceConfig, retryCfg *config.RetryConfig, logger zerolog.Logger) *Loader {
	l := &Loader{
		retry: config.RetryConfig{
			MaxRetries: 3,
			BaseDelay:  defaultBaseDelay,
		},
		logger: logger.With().Str("component", "source").Logger(),
	}
	if cfg != nil {
		l.cfg = *cfg
	}
	if retryCfg != nil {
		l.retry = *retryCfg
	}
	return l
}

// Fetch reads the whole document at location.
func (l *Loader) Fetch(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", ErrNotFound)
	}

	var (
		content []byte
		err     error
	)
	switch {
	case strings.HasPrefix(location, "s3://"):
		content, err = l.s3Fetcher().Fetch(ctx, location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		content, err = l.httpFetcher().Fetch(ctx, location)
	default:
		content, err = readFile(location)
	}
	if err != nil {
		l.logger.Error().Err(err).Str("location", location).Msg("failed to fetch source")
		return nil, err
	}

	l.logger.Debug().
		Str("location", location).
		Int("bytes", len(content)).
		Msg("source fetched")
	return content, nil
}

func (l *Loader) httpFetcher() Fetcher {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.http == nil {
		l.http = NewHTTPFetcher(l.cfg.Timeout, &l.retry, l.logger)
	}
	return l.http
}

func (l *Loader) s3Fetcher() Fetcher {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.s3 == nil {
		l.s3 = NewS3Fetcher(&l.cfg.S3, l.logger)
	}
	return l.s3
}

func readFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}
