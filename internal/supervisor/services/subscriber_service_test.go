// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/thejerf/suture/v4"
)

type subscriberFunc func(ctx context.Context) error

func (f subscriberFunc) Run(ctx context.Context) error { return f(ctx) }

func TestSubscriberService(t *testing.T) {
	var _ suture.Service = (*SubscriberService)(nil)

	t.Run("returns context error on shutdown", func(t *testing.T) {
		svc := NewSubscriberService(subscriberFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	})

	t.Run("early return is a failure", func(t *testing.T) {
		connErr := errors.New("nats: connection closed")
		svc := NewSubscriberService(subscriberFunc(func(context.Context) error { return connErr }))
		if err := svc.Serve(context.Background()); !errors.Is(err, connErr) {
			t.Errorf("Serve() error = %v, want %v", err, connErr)
		}

		svc = NewSubscriberService(subscriberFunc(func(context.Context) error { return nil }))
		if err := svc.Serve(context.Background()); err == nil {
			t.Error("Serve() error = nil for a subscriber that stopped on its own")
		}
	})
}
