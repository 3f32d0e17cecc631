// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/setlist/internal/metrics"
)

const breakerName = "dataset-fetch"

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// Timeout bounds a single download attempt.
	Timeout time.Duration

	// MaxAttempts is the number of tries for retryable failures.
	MaxAttempts int

	// RetryInterval paces attempts. Zero retries immediately.
	RetryInterval time.Duration

	// MaxBytes caps the downloaded body. Zero means 1 GiB.
	MaxBytes int64
}

// Fetcher loads datasets from http(s) URLs or local files.
type Fetcher struct {
	cfg    FetcherConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker[*Dataset]
	logger zerolog.Logger
}

// statusError is a non-2xx HTTP response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.code)
}

// NewFetcher creates a Fetcher.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFetcher(cfg FetcherConfig, logger zerolog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 30
	}

	f := &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "dataset").Logger(),
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	f.cb = gobreaker.NewCircuitBreaker[*Dataset](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A reachable server returning a bad CSV is not an availability problem.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidDataset) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return f
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedSource, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrUnsupportedSource)
	}
	return nil
}

// Fetch loads and parses the dataset at source: an http(s) URL, a file://
// URL, or a local path.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Dataset, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedSource, err)
	}

	var ds *Dataset
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("%w: missing host", ErrUnsupportedSource)
		}
		ds, err = f.fetchHTTP(ctx, source)
	case "file":
		ds, err = f.readFile(u.Path)
	case "":
		ds, err = f.readFile(source)
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	ds.Source = source
	f.logger.Info().
		Str("source", source).
		Int("rows", ds.Stats.TotalRows).
		Int("playlists", ds.Stats.TotalPlaylists).
		Int("unique_items", ds.Stats.UniqueItems).
		Msg("Dataset loaded")
	return ds, nil
}

func (f *Fetcher) readFile(path string) (*Dataset, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = file.Close() }() //nolint:errcheck // read-only handle
	return Parse(file)
}

// fetchHTTP downloads with retries on network errors, 5xx and 429.
func (f *Fetcher) fetchHTTP(ctx context.Context, source string) (*Dataset, error) {
	limit := rate.Inf
	if f.cfg.RetryInterval > 0 {
		limit = rate.Every(f.cfg.RetryInterval)
	}
	pacer := rate.NewLimiter(limit, 1)

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if err := pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, errors.Join(err, lastErr))
		}

		ds, err := f.cb.Execute(func() (*Dataset, error) {
			return f.download(ctx, source)
		})
		if err == nil {
			metrics.RecordDatasetFetch("success")
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
			return ds, nil
		}
		lastErr = err

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.RecordDatasetFetch("rejected")
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		case errors.Is(err, ErrInvalidDataset):
			metrics.RecordDatasetFetch("failure")
			return nil, err
		case !retryable(ctx, err):
			metrics.RecordDatasetFetch("failure")
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}

		metrics.RecordDatasetFetch("retryable")
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		f.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", f.cfg.MaxAttempts).
			Dur("retry_interval", f.cfg.RetryInterval).
			Msg("Dataset download failed")
	}

	return nil, fmt.Errorf("%w: after %d attempts: %w", ErrFetchFailed, f.cfg.MaxAttempts, lastErr)
}

func (f *Fetcher) download(ctx context.Context, source string) (*Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // body fully consumed or abandoned

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}

	ds, err := Parse(http.MaxBytesReader(nil, resp.Body, f.cfg.MaxBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidDataset, tooLarge.Limit)
	}
	return ds, err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	// Transport errors (connection refused, timeouts, resets).
	return true
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
