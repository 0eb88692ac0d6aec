// Package reputation provides the IP reputation sources consulted during
// identity registration.
package reputation

import (
	"fmt"

	"github.com/darmiel/vigil/internal/core"
)

// Config selects and parameterizes a reputation source.
type Config struct {
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:"options"`
}

// Build constructs the configured reputation source. An empty type disables
// reputation lookups entirely; the evaluator then uses its neutral score.
func Build(cfg Config) (core.ReputationSource, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "static":
		return NewStaticSource(cfg.Options)
	case "stub":
		return NewStubSource(cfg.Options)
	default:
		return nil, fmt.Errorf("unknown reputation source type %q", cfg.Type)
	}
}
