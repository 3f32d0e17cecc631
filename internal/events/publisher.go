// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/models"
)

const publishBreakerName = "nats-publish"

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher sends ModelPublished events with circuit breaker protection.
type Publisher struct {
	conn    *natsgo.Conn
	subject string
	cb      *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a Publisher on an existing connection. The
// connection is owned by the caller.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPublisher(conn *natsgo.Conn, subject string, logger zerolog.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	p := &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "events").Str("subject", subject).Logger(),
	}
	metrics.CircuitBreakerState.WithLabelValues(publishBreakerName).Set(0)
	p.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        publishBreakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return p
}

// Subject returns the subject events are published on.
func (p *Publisher) Subject() string {
	return p.subject
}

// Publish sends ev and waits for the server to acknowledge the flush.
func (p *Publisher) Publish(ctx context.Context, ev *ModelPublished) error {
	data, err := Marshal(ev)
	if err != nil {
		return err
	}
	return p.send(ctx, ev, data)
}

// PublishPayload sends an already encoded event. The payload is validated
// first so journaled entries cannot put malformed events on the wire.
func (p *Publisher) PublishPayload(ctx context.Context, data []byte) error {
	ev, err := Unmarshal(data)
	if err != nil {
		return err
	}
	return p.send(ctx, ev, data)
}

func (p *Publisher) send(ctx context.Context, ev *ModelPublished, data []byte) (err error) {
	defer func() { metrics.RecordEventPublish(err) }()

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	_, err = p.cb.Execute(func() (struct{}, error) {
		if err := p.conn.Publish(p.subject, data); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, flush(ctx, p.conn)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}

	p.logger.Info().
		Str("version", ev.Version).
		Int("rules", ev.NumRules).
		Msg("Model published event sent")
	return nil
}

// PublishModel announces a saved model. Its signature matches the
// training listener so it can be registered directly.
func (p *Publisher) PublishModel(ctx context.Context, info models.ModelInfo) error {
	return p.Publish(ctx, NewModelPublished(&info))
}

// Close stops publishing. The connection is not closed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
