package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/sassy/pkg/eventstream"
)

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []eventstream.NourishmentEvent

	Fail bool
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) PublishNourishment(_ context.Context, event *eventstream.NourishmentEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if p.Fail {
		return errors.New("mock publish failure")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *RecordingPublisher) Events() []eventstream.NourishmentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventstream.NourishmentEvent(nil), p.events...)
}

func (p *RecordingPublisher) Close() error {
	return nil
}
