// Package eventstreamutils builds an eventstream.Publisher from configuration.
package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/sassy/pkg/config"
	"github.com/papercomputeco/sassy/pkg/eventstream"
	"github.com/papercomputeco/sassy/pkg/eventstream/kafka"
	"github.com/papercomputeco/sassy/pkg/eventstream/nop"
)

func NewPublisher(c config.EventsConfig, logger *slog.Logger) (eventstream.Publisher, error) {
	switch c.Provider {
	case "nop", "":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: c.BrokerList(),
			Topic:   c.Topic,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", c.Provider)
	}
}
