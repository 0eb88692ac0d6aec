// Package incident delivers incident events for risky denials to an external
// responder. Delivery is best-effort; the decision pipeline never waits for or
// fails on a sink.
package incident

import (
	"fmt"

	"github.com/darmiel/vigil/internal/core"
)

// Config selects and parameterizes an incident sink.
type Config struct {
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:"options"`
}

// Build constructs the configured incident sink. An empty type falls back to
// the log sink so risky denials are at least visible in the service log.
func Build(cfg Config) (core.IncidentSink, error) {
	switch cfg.Type {
	case "", "log":
		return NewLogSink(), nil
	case "webhook":
		return NewWebhookSink(cfg.Options)
	case "noop":
		return NewNoopSink(), nil
	default:
		return nil, fmt.Errorf("unknown incident sink type %q", cfg.Type)
	}
}
