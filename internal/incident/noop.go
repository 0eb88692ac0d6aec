package incident

import (
	"context"

	"github.com/darmiel/vigil/internal/core"
)

var _ core.IncidentSink = (*NoopSink)(nil)

// NoopSink discards all incident events.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Name() string {
	return "noop"
}

func (s *NoopSink) Notify(_ context.Context, _ core.IncidentEvent) error {
	return nil
}
