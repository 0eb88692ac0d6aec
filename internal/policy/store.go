// Package policy owns the ordered collection of network policies and selects
// the applicable policy for a request tuple.
package policy

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/core"
)

// Store holds the insertion-ordered policy sequence. Mutations build a new
// sequence and swap it in atomically, so a concurrent matcher always observes
// either the pre- or post-mutation sequence in full, never a partial one.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[[]core.NetworkPolicy]

	snapshots core.SnapshotStore // may be nil
}

// NewStore creates a store seeded with the given policies, in order.
func NewStore(initial []core.NetworkPolicy, snapshots core.SnapshotStore) *Store {
	s := &Store{snapshots: snapshots}
	seq := make([]core.NetworkPolicy, len(initial))
	copy(seq, initial)
	s.current.Store(&seq)
	return s
}

// Add appends a policy to the sequence. A duplicate policy ID fails with
// PolicyConflictError and leaves the store untouched.
func (s *Store) Add(p core.NetworkPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := *s.current.Load()
	for _, existing := range old {
		if existing.PolicyID == p.PolicyID {
			return core.PolicyConflictError{PolicyID: p.PolicyID}
		}
	}

	next := make([]core.NetworkPolicy, len(old)+1)
	copy(next, old)
	next[len(old)] = p
	s.current.Store(&next)

	log.Info().
		Str("policy_id", p.PolicyID).
		Str("source_zone", string(p.SourceZone)).
		Str("destination_zone", string(p.DestinationZone)).
		Msg("policy added")

	s.persist(p)
	return nil
}

// Remove deletes the policy with the given ID. Removing an unknown policy is
// an error. Sessions already granted under the policy keep the copied values
// they were granted with.
func (s *Store) Remove(policyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := *s.current.Load()
	next := make([]core.NetworkPolicy, 0, len(old))
	found := false
	for _, p := range old {
		if p.PolicyID == policyID {
			found = true
			continue
		}
		next = append(next, p)
	}
	if !found {
		return core.UnknownPolicyError{PolicyID: policyID}
	}
	s.current.Store(&next)

	log.Info().Str("policy_id", policyID).Msg("policy removed")

	if s.snapshots != nil {
		go func() {
			if err := s.snapshots.DeletePolicy(context.Background(), policyID); err != nil {
				log.Warn().Err(err).Str("policy_id", policyID).Msg("failed to delete policy snapshot")
			}
		}()
	}
	return nil
}

// List returns a copy of the current sequence in insertion order.
func (s *Store) List() []core.NetworkPolicy {
	seq := *s.current.Load()
	out := make([]core.NetworkPolicy, len(seq))
	copy(out, seq)
	return out
}

// sequence returns the live sequence for matching. Callers must not mutate it.
func (s *Store) sequence() []core.NetworkPolicy {
	return *s.current.Load()
}

func (s *Store) persist(p core.NetworkPolicy) {
	if s.snapshots == nil {
		return
	}
	go func() {
		if err := s.snapshots.SavePolicy(context.Background(), p); err != nil {
			log.Warn().Err(err).Str("policy_id", p.PolicyID).Msg("failed to snapshot policy")
		}
	}()
}
