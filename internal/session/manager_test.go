package session

import (
	"testing"
	"time"

	"github.com/darmiel/vigil/internal/core"
)

func testPolicy(ttlSeconds int) core.NetworkPolicy {
	return core.NetworkPolicy{
		PolicyID:           "test-policy",
		SourceZone:         core.ZoneDMZ,
		DestinationZone:    core.ZoneInternal,
		AllowedPorts:       []int{443},
		Protocol:           "tcp",
		MaxSessionDuration: ttlSeconds,
	}
}

func TestManager_Create(t *testing.T) {
	m := NewManager(nil)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	sess := m.Create("client-1", "10.0.1.5", 443, testPolicy(1800))

	if sess.SessionID == "" {
		t.Error("Create() returned empty session ID")
	}
	if sess.SourceEntity != "client-1" {
		t.Errorf("SourceEntity = %s, want client-1", sess.SourceEntity)
	}
	if want := base.Add(30 * time.Minute); !sess.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, want)
	}
	if !m.IsActive(sess.SessionID) {
		t.Error("fresh session should be active")
	}

	got, ok := m.Get(sess.SessionID)
	if !ok || got.SessionID != sess.SessionID {
		t.Error("Get() did not return the created session")
	}
}

func TestManager_SessionIDsAreUnique(t *testing.T) {
	m := NewManager(nil)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess := m.Create("client-1", "10.0.1.5", 443, testPolicy(60))
		if seen[sess.SessionID] {
			t.Fatalf("duplicate session ID %s", sess.SessionID)
		}
		seen[sess.SessionID] = true
	}
}

func TestManager_ExpiryIsLazy(t *testing.T) {
	m := NewManager(nil)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	sess := m.Create("client-1", "10.0.1.5", 443, testPolicy(60))

	now = base.Add(59 * time.Second)
	if !m.IsActive(sess.SessionID) {
		t.Error("session should be active before expiry")
	}

	now = base.Add(61 * time.Second)
	if m.IsActive(sess.SessionID) {
		t.Error("session should be inactive after expiry")
	}
	// expired but not yet swept, still retrievable
	if _, ok := m.Get(sess.SessionID); !ok {
		t.Error("expired session should remain retrievable until swept")
	}
}

func TestManager_SweepExpired(t *testing.T) {
	m := NewManager(nil)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	short := m.Create("client-1", "10.0.1.5", 443, testPolicy(60))
	long := m.Create("client-2", "10.0.1.6", 443, testPolicy(3600))

	now = base.Add(2 * time.Minute)

	if removed := m.SweepExpired(); removed != 1 {
		t.Errorf("SweepExpired() = %d, want 1", removed)
	}
	if _, ok := m.Get(short.SessionID); ok {
		t.Error("expired session survived the sweep")
	}
	if !m.IsActive(long.SessionID) {
		t.Error("active session was swept")
	}

	active := m.ListActive()
	if len(active) != 1 || active[0].SessionID != long.SessionID {
		t.Errorf("ListActive() = %v, want only the long session", active)
	}
}

func TestManager_UnknownSession(t *testing.T) {
	m := NewManager(nil)
	if m.IsActive("nope") {
		t.Error("unknown session reported active")
	}
	if _, ok := m.Get("nope"); ok {
		t.Error("Get() found a session that was never created")
	}
}
