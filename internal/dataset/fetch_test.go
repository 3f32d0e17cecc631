// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestFetcher(attempts int) *Fetcher {
	return NewFetcher(FetcherConfig{
		Timeout:       5 * time.Second,
		MaxAttempts:   attempts,
		RetryInterval: time.Millisecond,
	}, zerolog.Nop())
}

func TestFetch_HTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ds, err := newTestFetcher(1).Fetch(context.Background(), srv.URL+"/playlists.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if ds.Stats.TotalPlaylists != 2 {
		t.Errorf("TotalPlaylists = %d, want 2", ds.Stats.TotalPlaylists)
	}
	if ds.Source != srv.URL+"/playlists.csv" {
		t.Errorf("Source = %q", ds.Source)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(sampleCSV))
		}
	}))
	defer srv.Close()

	if _, err := newTestFetcher(3).Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestFetch_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestFetcher(2).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(3).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestFetch_InvalidCSVNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("id,name\n1,x\n"))
	}))
	defer srv.Close()

	_, err := newTestFetcher(3).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrInvalidDataset) {
		t.Fatalf("Fetch() error = %v, want ErrInvalidDataset", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{MaxAttempts: 3, MaxBytes: 40}, zerolog.Nop())
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrInvalidDataset) || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("Fetch() error = %v, want size limit error", err)
	}
}

func TestFetch_CircuitOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(10)
	if _, err := f.Fetch(context.Background(), srv.URL); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
	// Five consecutive failures trip the breaker; the rest are rejected locally.
	if got := calls.Load(); got != 5 {
		t.Errorf("server calls = %d, want 5", got)
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(FetcherConfig{MaxAttempts: 3, RetryInterval: time.Hour}, zerolog.Nop())
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Error("Fetch() with canceled context error = nil")
	}
}

func TestFetch_LocalFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "playlists.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	f := newTestFetcher(1)
	for _, src := range []string{path, "file://" + path} {
		ds, err := f.Fetch(context.Background(), src)
		if err != nil {
			t.Fatalf("Fetch(%q) error = %v", src, err)
		}
		if ds.Stats.TotalRows != 5 {
			t.Errorf("Fetch(%q) rows = %d, want 5", src, ds.Stats.TotalRows)
		}
	}

	if _, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("Fetch(missing file) error = nil")
	}
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	t.Parallel()

	_, err := newTestFetcher(1).Fetch(context.Background(), "ftp://example.com/p.csv")
	if !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("Fetch(ftp) error = %v, want ErrUnsupportedSource", err)
	}
}

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/playlists.csv", false},
		{"http://localhost:8000/p.csv", false},
		{"ftp://example.com/p.csv", true},
		{"/data/playlists.csv", true},
		{"file:///data/playlists.csv", true},
		{"https://", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUnsupportedSource) {
			t.Errorf("ValidateURL(%q) error = %v, want ErrUnsupportedSource", tt.url, err)
		}
	}
}
