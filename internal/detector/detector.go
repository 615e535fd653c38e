// Package detector controls the external sensor-detection process that
// streams glove frames to the server.
package detector

import (
	"context"
	"time"
)

// Action is a detection control command.
type Action string

const (
	ActionStart Action = "start_detection"
	ActionStop  Action = "stop_detection"
)

// Controller defines the interface for detection process control.
type Controller interface {
	// Notify tells the detection process to start or stop streaming.
	Notify(ctx context.Context, action Action) error
}

// Config holds configuration options for the detector client.
type Config struct {
	// URL is the base URL of the detection process (default: http://localhost:5001).
	URL string

	// Timeout bounds each notify call.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		URL:     "http://localhost:5001",
		Timeout: 5 * time.Second,
	}
}
