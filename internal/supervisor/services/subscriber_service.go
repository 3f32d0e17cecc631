// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"fmt"
)

// Subscriber runs until its context is canceled. *events.Subscriber
// satisfies it.
type Subscriber interface {
	Run(ctx context.Context) error
}

// SubscriberService supervises a model event subscriber. A Run that
// returns early is reported as a failure so suture resubscribes.
type SubscriberService struct {
	subscriber Subscriber
	name       string
}

// NewSubscriberService wraps subscriber.
func NewSubscriberService(subscriber Subscriber) *SubscriberService {
	return &SubscriberService{subscriber: subscriber, name: "model-event-subscriber"}
}

// Serve implements suture.Service.
func (s *SubscriberService) Serve(ctx context.Context) error {
	err := s.subscriber.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("subscriber stopped")
	}
	return fmt.Errorf("%s: %w", s.name, err)
}

// String identifies the service in supervisor logs.
func (s *SubscriberService) String() string {
	return s.name
}
