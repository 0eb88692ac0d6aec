package identity

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/core"
)

// EvaluatorConfig holds the tunables of the risk/trust mapping. The exact
// numbers are configuration, not business rules; the defaults below are the
// reference behavior the tests pin down.
type EvaluatorConfig struct {
	// NeutralReputation is used when the reputation lookup fails or no source
	// is configured.
	NeutralReputation float64 `yaml:"neutral_reputation"`

	// NoveltyDecay is the per-sighting decay factor of the fingerprint-novelty
	// signal: novelty = NoveltyDecay^sightings, so a first-seen fingerprint
	// scores 1.0 and repeat sightings decay toward 0.
	NoveltyDecay float64 `yaml:"novelty_decay"`

	// ReputationWeight and NoveltyWeight combine the two signals into the
	// final risk score.
	ReputationWeight float64 `yaml:"reputation_weight"`
	NoveltyWeight    float64 `yaml:"novelty_weight"`

	// AuthenticatedBelow and BasicBelow are the risk thresholds of the initial
	// trust assignment: risk < AuthenticatedBelow maps to AUTHENTICATED,
	// risk < BasicBelow maps to BASIC, everything else to UNTRUSTED.
	AuthenticatedBelow float64 `yaml:"authenticated_below"`
	BasicBelow         float64 `yaml:"basic_below"`
}

// DefaultEvaluatorConfig returns the reference tunables.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		NeutralReputation:  0.5,
		NoveltyDecay:       0.5,
		ReputationWeight:   0.5,
		NoveltyWeight:      0.5,
		AuthenticatedBelow: 0.3,
		BasicBelow:         0.6,
	}
}

// Evaluator computes risk scores and maps them to trust levels. It keeps a
// per-entity count of fingerprint sightings for the novelty signal.
type Evaluator struct {
	cfg    EvaluatorConfig
	source core.ReputationSource

	mu        sync.Mutex
	sightings map[string]map[string]int // entity -> fingerprint -> count
}

// NewEvaluator creates an evaluator. The reputation source may be nil, in
// which case the neutral score is used for every lookup.
func NewEvaluator(cfg EvaluatorConfig, source core.ReputationSource) *Evaluator {
	return &Evaluator{
		cfg:       cfg,
		source:    source,
		sightings: make(map[string]map[string]int),
	}
}

// Score computes the risk score for an entity registering with the given IP
// and device fingerprint, and records the sighting.
func (e *Evaluator) Score(ctx context.Context, entityID, ip, fingerprint string) float64 {
	reputation := e.cfg.NeutralReputation
	if e.source != nil {
		score, err := e.source.Score(ctx, ip)
		if err != nil {
			log.Warn().Err(err).
				Str("source", e.source.Name()).
				Str("ip", ip).
				Msg("reputation lookup failed, using neutral score")
		} else {
			reputation = score
		}
	}

	novelty := math.Pow(e.cfg.NoveltyDecay, float64(e.recordSighting(entityID, fingerprint)))

	risk := e.cfg.ReputationWeight*reputation + e.cfg.NoveltyWeight*novelty
	return clamp01(risk)
}

// recordSighting bumps the sighting count and returns the count of sightings
// before this one (0 for a first-seen fingerprint).
func (e *Evaluator) recordSighting(entityID, fingerprint string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	byFingerprint, ok := e.sightings[entityID]
	if !ok {
		byFingerprint = make(map[string]int)
		e.sightings[entityID] = byFingerprint
	}
	prior := byFingerprint[fingerprint]
	byFingerprint[fingerprint] = prior + 1
	return prior
}

// Forget drops all sighting history for an entity. Used when the entity is
// explicitly removed from the registry.
func (e *Evaluator) Forget(entityID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sightings, entityID)
}

// TrustFor maps a risk score to the initial trust level for a zone. Entities
// registering directly into ADMIN or SECURE zones are capped at BASIC until an
// external elevation step (e.g. MFA completion) raises them.
func (e *Evaluator) TrustFor(zone core.NetworkZone, riskScore float64) core.TrustLevel {
	var level core.TrustLevel
	switch {
	case riskScore < e.cfg.AuthenticatedBelow:
		level = core.TrustAuthenticated
	case riskScore < e.cfg.BasicBelow:
		level = core.TrustBasic
	default:
		level = core.TrustUntrusted
	}

	if (zone == core.ZoneAdmin || zone == core.ZoneSecure) && level > core.TrustBasic {
		level = core.TrustBasic
	}
	return level
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
