package eventstream

import "context"

// Publisher publishes nourishment events to an event stream backend.
type Publisher interface {
	PublishNourishment(ctx context.Context, event *NourishmentEvent) error
	Close() error
}
