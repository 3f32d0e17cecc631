// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package events

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// FlushTimeout bounds a flush whose context has no earlier deadline.
const FlushTimeout = 5 * time.Second

// ConnConfig configures the NATS client connection.
type ConnConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Connect dials NATS with reconnect handling. The connection keeps retrying
// in the background if the server is not yet reachable.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Connect(cfg ConnConfig, logger zerolog.Logger) (*natsgo.Conn, error) {
	if cfg.Name == "" {
		cfg.Name = "setlist"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	opts := []natsgo.Option{
		natsgo.Name(cfg.Name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			ev := logger.Error().Err(err)
			if sub != nil {
				ev = ev.Str("subject", sub.Subject)
			}
			ev.Msg("NATS error")
		}),
	}

	nc, err := natsgo.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	return nc, nil
}

// flush waits for the server to process everything sent on conn.
// FlushWithContext rejects contexts without a deadline, so one is added.
func flush(ctx context.Context, conn *natsgo.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, FlushTimeout)
	defer cancel()
	return conn.FlushWithContext(ctx)
}
