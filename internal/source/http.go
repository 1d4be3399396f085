package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"inventory-loader/internal/config"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultBaseDelay = 1 * time.Second
)

// HTTPFetcher downloads documents over HTTP(S).
type HTTPFetcher struct {
	client *resty.Client
	logger zerolog.Logger
}

// NewHTTPFetcher creates an HTTP fetcher with retry on transport errors, 429 and 5xx.
func NewHTTPFetcher(timeout time.Duration, retryCfg *config.RetryConfig, logger zerolog.Logger) *HTTPFetcher {
	if timeout == 0 {
		timeout = defaultTimeout
	}

	retry := config.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  defaultBaseDelay,
	}
	if retryCfg != nil {
		retry = *retryCfg
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "text/csv, text/plain, */*").
		SetRetryCount(retry.MaxRetries).
		SetRetryWaitTime(retry.BaseDelay).
		SetRetryMaxWaitTime(retry.BaseDelay * 8).
		AddRetryCondition(retryCondition)

	return &HTTPFetcher{
		client: client,
		logger: logger.With().Str("fetcher", "http").Logger(),
	}
}

// retryCondition retries on timeout, connection failures, 429 and 5xx errors.
// Other 4xx responses are final.
func retryCondition(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
}

// Fetch downloads the document at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.logger.Debug().Str("url", url).Msg("downloading source")

	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("download %s returned status %d", url, resp.StatusCode())
	}

	return resp.Body(), nil
}
