// Package store provides the snapshot persistence backends. Snapshots are a
// durability layer for operators, never an authority: the in-memory state of
// the running service always wins.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/darmiel/vigil/internal/core"
)

var _ core.SnapshotStore = (*InMemorySnapshotStore)(nil)

// InMemorySnapshotStore keeps snapshots in process memory. Used in tests and
// in deployments that don't configure an external store; contents are lost on
// restart.
type InMemorySnapshotStore struct {
	mu         sync.RWMutex
	identities map[string]core.NetworkIdentity
	policies   map[string]core.NetworkPolicy
	sessions   map[string]sessionSnapshot
}

type sessionSnapshot struct {
	session   core.AccessSession
	expiresAt time.Time
}

func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{
		identities: make(map[string]core.NetworkIdentity),
		policies:   make(map[string]core.NetworkPolicy),
		sessions:   make(map[string]sessionSnapshot),
	}
}

func (s *InMemorySnapshotStore) SaveIdentity(_ context.Context, identity core.NetworkIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.EntityID] = identity
	return nil
}

func (s *InMemorySnapshotStore) SavePolicy(_ context.Context, policy core.NetworkPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.PolicyID] = policy
	return nil
}

func (s *InMemorySnapshotStore) DeletePolicy(_ context.Context, policyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, policyID)
	return nil
}

func (s *InMemorySnapshotStore) SaveSession(_ context.Context, session core.AccessSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = sessionSnapshot{
		session:   session,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// GetIdentity is used by tests to inspect what was persisted.
func (s *InMemorySnapshotStore) GetIdentity(entityID string) (core.NetworkIdentity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[entityID]
	return identity, ok
}

// GetSession returns a persisted session if its TTL has not elapsed.
func (s *InMemorySnapshotStore) GetSession(sessionID string) (core.AccessSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sessions[sessionID]
	if !ok || time.Now().After(snap.expiresAt) {
		return core.AccessSession{}, false
	}
	return snap.session, true
}

func (s *InMemorySnapshotStore) Close() error {
	return nil
}
