// Package api provides the HTTP API server for the sassy memory engine.
package api

import (
	"github.com/papercomputeco/sassy/pkg/nourish"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Pipeline backs the /v1/nourish endpoints. When nil they answer 503.
	Pipeline *nourish.Pipeline

	// NewMonitor builds the monitor for runs started over HTTP. Nil uses a
	// log monitor.
	NewMonitor func() nourish.Monitor
}
