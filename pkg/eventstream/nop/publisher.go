// Package nop provides an eventstream publisher that discards events.
package nop

import (
	"context"

	"github.com/papercomputeco/sassy/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishNourishment validates input and otherwise does nothing.
func (p *Publisher) PublishNourishment(_ context.Context, event *eventstream.NourishmentEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

func (p *Publisher) Close() error {
	return nil
}
