package incident

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/core"
)

var _ core.IncidentSink = (*LogSink)(nil)

// LogSink writes incident events to the service log.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Name() string {
	return "log"
}

func (s *LogSink) Notify(ctx context.Context, event core.IncidentEvent) error {
	log.Ctx(ctx).Warn().
		Str("entity_id", event.EntityID).
		Str("destination_ip", event.DestinationIP).
		Int("destination_port", event.DestinationPort).
		Str("reason", string(event.Reason)).
		Float64("risk_score", event.RiskScore).
		Msg("security incident: risky access denied")
	return nil
}
