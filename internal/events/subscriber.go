// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package events

import (
	"context"
	"fmt"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/metrics"
)

// Handler processes one received event. Errors are logged.
type Handler func(ctx context.Context, ev *ModelPublished) error

// Subscriber delivers ModelPublished events to a Handler.
type Subscriber struct {
	conn    *natsgo.Conn
	subject string
	handler Handler
	logger  zerolog.Logger
}

// NewSubscriber creates a Subscriber on an existing connection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSubscriber(conn *natsgo.Conn, subject string, handler Handler, logger zerolog.Logger) *Subscriber {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Subscriber{
		conn:    conn,
		subject: subject,
		handler: handler,
		logger:  logger.With().Str("component", "events").Str("subject", subject).Logger(),
	}
}

// Run subscribes and handles events until ctx is canceled. Messages are
// handled one at a time in arrival order.
func (s *Subscriber) Run(ctx context.Context) error {
	msgs := make(chan *natsgo.Msg, 64)
	sub, err := s.conn.ChanSubscribe(s.subject, msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }() //nolint:errcheck // best effort on shutdown

	if err := flush(ctx, s.conn); err != nil {
		return fmt.Errorf("flush subscription %s: %w", s.subject, err)
	}
	s.logger.Info().Msg("Subscribed to model events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			s.handle(ctx, msg)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, msg *natsgo.Msg) {
	ev, err := Unmarshal(msg.Data)
	if err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(msg.Data)).Msg("Dropping malformed model event")
		return
	}
	metrics.RecordEventReceived()

	s.logger.Debug().Str("version", ev.Version).Msg("Model event received")
	if err := s.handler(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("version", ev.Version).Msg("Model event handler failed")
	}
}
