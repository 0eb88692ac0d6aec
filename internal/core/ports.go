package core

import (
	"context"
	"time"
)

// ReputationSource looks up the reputation risk of an IP address.
// Implementations: static table, neutral stub. The returned score is in [0,1]
// with higher meaning riskier; callers fall back to a neutral score when the
// lookup fails.
type ReputationSource interface {
	// Name returns the identifier of this source (as used in config).
	Name() string

	// Score returns the reputation risk for the given IP address.
	Score(ctx context.Context, ip string) (float64, error)
}

// IncidentEvent is the structured notification emitted for denied decisions
// whose source identity carries a risk score at or above the configured
// threshold. It is a one-way, fire-and-forget message to the incident-response
// orchestrator.
type IncidentEvent struct {
	EntityID        string    `json:"entity_id"`
	DestinationIP   string    `json:"destination_ip"`
	DestinationPort int       `json:"destination_port"`
	Reason          Reason    `json:"reason"`
	RiskScore       float64   `json:"risk_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// IncidentSink receives incident events. Implementations: log, webhook, noop.
type IncidentSink interface {
	// Name returns the identifier of this sink (as used in config).
	Name() string

	// Notify delivers the event. Failures are logged by the caller and never
	// affect the decision result.
	Notify(ctx context.Context, event IncidentEvent) error
}

// SnapshotStore persists durable snapshots of identities, policies and
// sessions in an external key-value store with TTL support. All writes are
// fire-and-forget from the decision path: a failure is logged as a warning and
// never changes the in-memory decision.
type SnapshotStore interface {
	SaveIdentity(ctx context.Context, identity NetworkIdentity) error
	SavePolicy(ctx context.Context, policy NetworkPolicy) error
	DeletePolicy(ctx context.Context, policyID string) error

	// SaveSession stores the session with a TTL equal to the granting policy's
	// max session duration.
	SaveSession(ctx context.Context, session AccessSession, ttl time.Duration) error

	Close() error
}
