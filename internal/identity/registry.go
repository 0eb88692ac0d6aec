// Package identity owns the set of known network identities and their trust
// attributes. The registry is the only component that mutates identities; all
// other components read through it.
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/core"
)

// Registry holds all registered network identities. Reads are concurrent,
// writes exclusive. Snapshot persistence is fire-and-forget and never blocks
// or fails a caller.
type Registry struct {
	mu         sync.RWMutex
	identities map[string]core.NetworkIdentity

	evaluator *Evaluator
	snapshots core.SnapshotStore // may be nil
	now       func() time.Time
}

func NewRegistry(evaluator *Evaluator, snapshots core.SnapshotStore) *Registry {
	return &Registry{
		identities: make(map[string]core.NetworkIdentity),
		evaluator:  evaluator,
		snapshots:  snapshots,
		now:        time.Now,
	}
}

// Register creates or refreshes an identity. It is idempotent: re-registering
// an existing entity updates its addresses, fingerprint, zone and timestamp
// and recomputes risk and trust.
func (r *Registry) Register(ctx context.Context, entityID, ip, mac, fingerprint string, zone core.NetworkZone) (core.NetworkIdentity, error) {
	if entityID == "" {
		return core.NetworkIdentity{}, fmt.Errorf("entity_id must not be empty")
	}
	if !zone.IsValid() {
		return core.NetworkIdentity{}, fmt.Errorf("unknown network zone '%s'", zone)
	}

	riskScore := r.evaluator.Score(ctx, entityID, ip, fingerprint)
	trustLevel := r.evaluator.TrustFor(zone, riskScore)

	identity := core.NetworkIdentity{
		EntityID:          entityID,
		IPAddress:         ip,
		MACAddress:        mac,
		DeviceFingerprint: fingerprint,
		TrustLevel:        trustLevel,
		Zone:              zone,
		LastVerified:      r.now(),
		RiskScore:         riskScore,
	}

	r.mu.Lock()
	if existing, ok := r.identities[entityID]; ok {
		// re-registration keeps the certificate binding
		identity.CertThumbprint = existing.CertThumbprint
	}
	r.identities[entityID] = identity
	r.mu.Unlock()

	log.Info().
		Str("entity_id", entityID).
		Str("zone", string(zone)).
		Str("trust_level", trustLevel.String()).
		Float64("risk_score", riskScore).
		Msg("identity registered")

	r.persist(identity)
	return identity, nil
}

// Get returns the identity for the entity, or an UnknownEntityError.
func (r *Registry) Get(entityID string) (core.NetworkIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.identities[entityID]
	if !ok {
		return core.NetworkIdentity{}, core.UnknownEntityError{EntityID: entityID}
	}
	return identity, nil
}

// List returns a copy of all registered identities.
func (r *Registry) List() []core.NetworkIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]core.NetworkIdentity, 0, len(r.identities))
	for _, identity := range r.identities {
		list = append(list, identity)
	}
	return list
}

// Elevate raises the trust level of an entity. It only ever raises: lowering
// requires the explicit Demote operation so that downgrades always carry a
// reason code in the audit trail.
func (r *Registry) Elevate(entityID string, level core.TrustLevel) (core.NetworkIdentity, error) {
	if !level.IsValid() {
		return core.NetworkIdentity{}, fmt.Errorf("invalid trust level %d", int(level))
	}

	r.mu.Lock()
	identity, ok := r.identities[entityID]
	if !ok {
		r.mu.Unlock()
		return core.NetworkIdentity{}, core.UnknownEntityError{EntityID: entityID}
	}
	if level < identity.TrustLevel {
		r.mu.Unlock()
		return core.NetworkIdentity{}, fmt.Errorf("elevate cannot lower trust from %s to %s, use demote", identity.TrustLevel, level)
	}
	identity.TrustLevel = level
	identity.LastVerified = r.now()
	r.identities[entityID] = identity
	r.mu.Unlock()

	log.Info().
		Str("entity_id", entityID).
		Str("trust_level", level.String()).
		Msg("identity elevated")

	r.persist(identity)
	return identity, nil
}

// Demote lowers the trust level of an entity. The reason is mandatory and
// recorded for audit.
func (r *Registry) Demote(entityID string, level core.TrustLevel, reason string) (core.NetworkIdentity, error) {
	if !level.IsValid() {
		return core.NetworkIdentity{}, fmt.Errorf("invalid trust level %d", int(level))
	}
	if reason == "" {
		return core.NetworkIdentity{}, fmt.Errorf("demote requires a reason")
	}

	r.mu.Lock()
	identity, ok := r.identities[entityID]
	if !ok {
		r.mu.Unlock()
		return core.NetworkIdentity{}, core.UnknownEntityError{EntityID: entityID}
	}
	if level > identity.TrustLevel {
		r.mu.Unlock()
		return core.NetworkIdentity{}, fmt.Errorf("demote cannot raise trust from %s to %s, use elevate", identity.TrustLevel, level)
	}
	previous := identity.TrustLevel
	identity.TrustLevel = level
	r.identities[entityID] = identity
	r.mu.Unlock()

	log.Warn().
		Str("entity_id", entityID).
		Str("from", previous.String()).
		Str("to", level.String()).
		Str("reason", reason).
		Msg("identity demoted")

	r.persist(identity)
	return identity, nil
}

// UpdateRiskScore overwrites the risk score from the external behavioral
// detector and re-runs the trust mapping. This is the only write path into the
// registry that originates outside the core.
func (r *Registry) UpdateRiskScore(entityID string, score float64) (core.NetworkIdentity, error) {
	if score < 0 || score > 1 {
		return core.NetworkIdentity{}, fmt.Errorf("risk score %v outside [0,1]", score)
	}

	r.mu.Lock()
	identity, ok := r.identities[entityID]
	if !ok {
		r.mu.Unlock()
		return core.NetworkIdentity{}, core.UnknownEntityError{EntityID: entityID}
	}
	identity.RiskScore = score
	identity.TrustLevel = r.evaluator.TrustFor(identity.Zone, score)
	r.identities[entityID] = identity
	r.mu.Unlock()

	log.Info().
		Str("entity_id", entityID).
		Float64("risk_score", score).
		Str("trust_level", identity.TrustLevel.String()).
		Msg("risk score updated")

	r.persist(identity)
	return identity, nil
}

// Remove deletes an identity. Removal is always explicit; nothing in the core
// deletes identities implicitly.
func (r *Registry) Remove(entityID string) error {
	r.mu.Lock()
	_, ok := r.identities[entityID]
	if !ok {
		r.mu.Unlock()
		return core.UnknownEntityError{EntityID: entityID}
	}
	delete(r.identities, entityID)
	r.mu.Unlock()

	r.evaluator.Forget(entityID)
	log.Info().Str("entity_id", entityID).Msg("identity removed")
	return nil
}

// persist snapshots the identity to the external store without blocking the
// caller. Failures only log a warning; the in-memory state stays authoritative.
func (r *Registry) persist(identity core.NetworkIdentity) {
	if r.snapshots == nil {
		return
	}
	go func() {
		if err := r.snapshots.SaveIdentity(context.Background(), identity); err != nil {
			log.Warn().Err(err).
				Str("entity_id", identity.EntityID).
				Msg("failed to snapshot identity")
		}
	}()
}

// FlushAll re-saves every identity to the snapshot store. Used by the
// background flush task.
func (r *Registry) FlushAll(ctx context.Context) (int, error) {
	if r.snapshots == nil {
		return 0, nil
	}
	identities := r.List()
	for _, identity := range identities {
		if err := r.snapshots.SaveIdentity(ctx, identity); err != nil {
			return 0, fmt.Errorf("snapshotting identity '%s': %w", identity.EntityID, err)
		}
	}
	return len(identities), nil
}
