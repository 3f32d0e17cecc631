// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package wal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/metrics"
)

const pendingPrefix = "pending:"

// Defaults applied by Open for zero Config fields.
const (
	DefaultRetryInterval = 30 * time.Second
	DefaultRetryBackoff  = 5 * time.Second
	DefaultMaxRetries    = 20
	DefaultEntryTTL      = 24 * time.Hour

	maxBackoff = 5 * time.Minute
)

var (
	// ErrClosed is returned by operations on a closed log.
	ErrClosed = errors.New("wal is closed")

	// ErrEntryNotFound is returned when an entry ID has no pending entry.
	ErrEntryNotFound = errors.New("wal entry not found")

	// ErrEmptyPayload is returned by Write for an empty payload.
	ErrEmptyPayload = errors.New("wal payload is empty")
)

// Config configures the log and its retry policy.
type Config struct {
	Path string

	// NoSync skips the fsync after every write.
	NoSync bool

	// InMemory keeps the log in memory. Test use only.
	InMemory bool

	RetryInterval time.Duration
	RetryBackoff  time.Duration
	MaxRetries    int
	EntryTTL      time.Duration
}

func (c *Config) applyDefaults() {
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.EntryTTL <= 0 {
		c.EntryTTL = DefaultEntryTTL
	}
}

// Entry is one journaled payload.
type Entry struct {
	ID            string          `json:"id"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt time.Time       `json:"last_attempt_at,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
}

// WAL is a BadgerDB-backed write-ahead log.
type WAL struct {
	db     *badger.DB
	cfg    Config
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the log at cfg.Path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*WAL, error) {
	cfg.applyDefaults()
	if cfg.Path == "" && !cfg.InMemory {
		return nil, errors.New("wal path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = !cfg.NoSync && !cfg.InMemory
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open wal at %s: %w", cfg.Path, err)
	}

	w := &WAL{
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "wal").Logger(),
	}

	pending, err := w.Pending(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	metrics.SetWALPending(len(pending))
	if len(pending) > 0 {
		w.logger.Info().Int("pending", len(pending)).Msg("WAL opened with pending entries")
	}
	return w, nil
}

// Config returns the effective configuration.
func (w *WAL) Config() Config {
	return w.cfg
}

// Write journals payload and returns the new entry ID.
func (w *WAL) Write(ctx context.Context, payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", ErrEmptyPayload
	}
	release, err := w.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate entry id: %w", err)
	}
	entry := &Entry{
		ID:        id.String(),
		Payload:   append(json.RawMessage(nil), payload...),
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}

	if err := w.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.ID), data)
	}); err != nil {
		return "", fmt.Errorf("write entry: %w", err)
	}

	metrics.RecordWALOperation("write")
	metrics.AddWALPending(1)
	return entry.ID, nil
}

// Confirm removes a delivered entry.
func (w *WAL) Confirm(ctx context.Context, id string) error {
	return w.remove(ctx, id, "confirm")
}

// Discard removes an entry that will not be delivered.
func (w *WAL) Discard(ctx context.Context, id, reason string) error {
	if err := w.remove(ctx, id, "discard"); err != nil {
		return err
	}
	w.logger.Warn().Str("entry_id", id).Str("reason", reason).Msg("WAL entry discarded")
	return nil
}

func (w *WAL) remove(ctx context.Context, id, op string) error {
	release, err := w.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	err = w.db.Update(func(txn *badger.Txn) error {
		key := entryKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	metrics.RecordWALOperation(op)
	metrics.AddWALPending(-1)
	return nil
}

// UpdateAttempt records a failed delivery attempt.
func (w *WAL) UpdateAttempt(ctx context.Context, id, lastErr string) error {
	release, err := w.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return w.db.Update(func(txn *badger.Txn) error {
		key := entryKey(id)
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
			}
			return err
		}

		var entry Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return fmt.Errorf("decode entry %s: %w", id, err)
		}
		entry.Attempts++
		entry.LastAttemptAt = time.Now().UTC()
		entry.LastError = lastErr

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		metrics.RecordWALOperation("attempt")
		return txn.Set(key, data)
	})
}

// Pending returns all unconfirmed entries, oldest first.
func (w *WAL) Pending(ctx context.Context) ([]*Entry, error) {
	release, err := w.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var entries []*Entry
	err = w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pendingPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				w.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable WAL entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan pending entries: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database. It is safe to call more than once.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.db.Close()
}

// acquire holds the read lock so Close waits for in-flight operations.
func (w *WAL) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return nil, ErrClosed
	}
	return w.mu.RUnlock, nil
}

func entryKey(id string) []byte {
	return []byte(pendingPrefix + id)
}

// backoff returns base * 2^attempts, capped at five minutes.
func backoff(base time.Duration, attempts int) time.Duration {
	if attempts <= 0 {
		return base
	}
	if attempts > 30 {
		return maxBackoff
	}
	d := base << uint(attempts) //nolint:gosec // attempts is bounded above
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
