package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/core"
)

// Manager tracks access sessions from creation until they are swept after
// expiry. Sessions are audit artifacts: expiry is checked lazily on read, so a
// session that outlived its TTL is reported inactive even before the sweeper
// removes it.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]core.AccessSession
	snapshots core.SnapshotStore
	now       func() time.Time
}

// NewManager creates a session manager. snapshots may be nil to disable
// external persistence.
func NewManager(snapshots core.SnapshotStore) *Manager {
	return &Manager{
		sessions:  make(map[string]core.AccessSession),
		snapshots: snapshots,
		now:       time.Now,
	}
}

// Create opens a new session for a granted decision. The session lifetime is
// the granting policy's max session duration.
func (m *Manager) Create(entityID, destinationIP string, destinationPort int, policy core.NetworkPolicy) core.AccessSession {
	now := m.now()
	sess := core.AccessSession{
		SessionID:       xid.New().String(),
		SourceEntity:    entityID,
		DestinationIP:   destinationIP,
		DestinationPort: destinationPort,
		PolicyID:        policy.PolicyID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(policy.SessionTTL()),
	}

	m.mu.Lock()
	m.sessions[sess.SessionID] = sess
	m.mu.Unlock()

	if m.snapshots != nil {
		go func() {
			if err := m.snapshots.SaveSession(context.Background(), sess, policy.SessionTTL()); err != nil {
				log.Warn().Err(err).
					Str("session_id", sess.SessionID).
					Msg("error persisting session snapshot")
			}
		}()
	}

	log.Debug().
		Str("session_id", sess.SessionID).
		Str("entity_id", entityID).
		Time("expires_at", sess.ExpiresAt).
		Msg("session created")
	return sess
}

// Get returns the session with the given ID, whether active or expired.
func (m *Manager) Get(sessionID string) (core.AccessSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	return sess, ok
}

// IsActive reports whether the session exists and has not expired.
func (m *Manager) IsActive(sessionID string) bool {
	sess, ok := m.Get(sessionID)
	return ok && sess.Active(m.now())
}

// ListActive returns all sessions that have not expired yet.
func (m *Manager) ListActive() []core.AccessSession {
	now := m.now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]core.AccessSession, 0, len(m.sessions))
	for _, sess := range m.sessions {
		if sess.Active(now) {
			active = append(active, sess)
		}
	}
	return active
}

// SweepExpired removes all expired sessions and returns how many were removed.
// Called periodically by the background task runner.
func (m *Manager) SweepExpired() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if !sess.Active(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("swept expired sessions")
	}
	return removed
}
