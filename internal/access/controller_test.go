package access

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/darmiel/vigil/internal/core"
	"github.com/darmiel/vigil/internal/identity"
	"github.com/darmiel/vigil/internal/policy"
	"github.com/darmiel/vigil/internal/session"
	"github.com/darmiel/vigil/internal/zone"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []core.AuditEntry
}

func (a *recordingAuditor) Log(entry core.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *recordingAuditor) Close() error { return nil }

func (a *recordingAuditor) last(t *testing.T) core.AuditEntry {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		t.Fatal("no audit entries recorded")
	}
	return a.entries[len(a.entries)-1]
}

func (a *recordingAuditor) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

type channelSink struct {
	ch chan core.IncidentEvent
}

func (s *channelSink) Name() string { return "test" }

func (s *channelSink) Notify(_ context.Context, event core.IncidentEvent) error {
	s.ch <- event
	return nil
}

type harness struct {
	controller *Controller
	registry   *identity.Registry
	sessions   *session.Manager
	auditor    *recordingAuditor
	incidents  *channelSink
}

func newHarness(t *testing.T, riskThreshold float64) *harness {
	t.Helper()

	resolver, err := zone.NewResolver([]zone.Mapping{
		{CIDR: "10.0.0.0/24", Zone: core.ZoneDMZ},
		{CIDR: "10.0.1.0/24", Zone: core.ZoneInternal},
		{CIDR: "10.0.2.0/24", Zone: core.ZoneSecure},
		{CIDR: "10.0.3.0/24", Zone: core.ZoneAdmin},
	}, core.ZoneIsolated)
	if err != nil {
		t.Fatalf("building resolver: %v", err)
	}

	registry := identity.NewRegistry(identity.NewEvaluator(identity.DefaultEvaluatorConfig(), nil), nil)
	sessions := session.NewManager(nil)
	auditor := &recordingAuditor{}
	incidents := &channelSink{ch: make(chan core.IncidentEvent, 8)}

	controller := NewController(
		registry,
		resolver,
		policy.NewMatcher(policy.NewStore(policy.Defaults(), nil)),
		sessions,
		auditor,
		incidents,
		riskThreshold,
	)

	return &harness{
		controller: controller,
		registry:   registry,
		sessions:   sessions,
		auditor:    auditor,
		incidents:  incidents,
	}
}

// register creates an entity and pins its trust level.
func (h *harness) register(t *testing.T, entityID, ip string, z core.NetworkZone, level core.TrustLevel) {
	t.Helper()
	if _, err := h.registry.Register(context.Background(), entityID, ip, "aa:bb:cc:dd:ee:ff", "fp-"+entityID, z); err != nil {
		t.Fatalf("registering %s: %v", entityID, err)
	}
	if _, err := h.registry.Elevate(entityID, level); err != nil {
		t.Fatalf("elevating %s: %v", entityID, err)
	}
}

func TestController_Verify_Granted(t *testing.T) {
	h := newHarness(t, 1.1)
	h.register(t, "web-client", "10.0.0.5", core.ZoneDMZ, core.TrustAuthenticated)

	dec := h.controller.Verify(context.Background(), Request{
		EntityID:        "web-client",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	})

	if !dec.Granted {
		t.Fatalf("expected grant, got denial with reason %s", dec.Reason)
	}
	if dec.PolicyID != "dmz-to-internal" {
		t.Errorf("PolicyID = %s, want dmz-to-internal", dec.PolicyID)
	}
	if dec.Session == nil {
		t.Fatal("granted decision carries no session")
	}
	if got := dec.Session.ExpiresAt.Sub(dec.Session.CreatedAt); got != time.Hour {
		t.Errorf("session lifetime = %v, want 1h", got)
	}
	if !h.sessions.IsActive(dec.Session.SessionID) {
		t.Error("granted session not tracked as active")
	}

	entry := h.auditor.last(t)
	if !entry.Granted || entry.PolicyID != "dmz-to-internal" || entry.SessionID != dec.Session.SessionID {
		t.Errorf("audit entry does not reflect the grant: %+v", entry)
	}
}

func TestController_Verify_UnknownEntity(t *testing.T) {
	h := newHarness(t, 0) // threshold 0: every known-entity denial would fire
	dec := h.controller.Verify(context.Background(), Request{
		EntityID:        "ghost",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	})

	if dec.Granted {
		t.Fatal("unknown entity must be denied")
	}
	if dec.Reason != core.ReasonUnknownEntity {
		t.Errorf("Reason = %s, want %s", dec.Reason, core.ReasonUnknownEntity)
	}

	entry := h.auditor.last(t)
	if entry.Granted || entry.Reason != core.ReasonUnknownEntity {
		t.Errorf("audit entry does not reflect the denial: %+v", entry)
	}

	// unknown entities never escalate to incidents, even at threshold 0
	select {
	case event := <-h.incidents.ch:
		t.Errorf("unexpected incident event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestController_Verify_InsufficientTrust(t *testing.T) {
	h := newHarness(t, 0.5)
	h.register(t, "intruder", "10.0.0.9", core.ZoneDMZ, core.TrustUntrusted)

	dec := h.controller.Verify(context.Background(), Request{
		EntityID:        "intruder",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	})

	if dec.Granted {
		t.Fatal("untrusted entity must be denied")
	}
	if dec.Reason != core.ReasonInsufficientTrust {
		t.Errorf("Reason = %s, want %s", dec.Reason, core.ReasonInsufficientTrust)
	}
	if dec.PolicyID != "dmz-to-internal" {
		t.Errorf("denial should name the matched policy, got %s", dec.PolicyID)
	}

	// first-seen fingerprint with neutral reputation scores 0.75, above threshold
	select {
	case event := <-h.incidents.ch:
		if event.EntityID != "intruder" || event.Reason != core.ReasonInsufficientTrust {
			t.Errorf("unexpected incident event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Error("expected an incident event for a risky denial")
	}
}

func TestController_Verify_NoApplicablePolicy(t *testing.T) {
	h := newHarness(t, 1.1)
	h.register(t, "db-host", "10.0.2.7", core.ZoneSecure, core.TrustPrivileged)

	// no policy allows secure -> dmz
	dec := h.controller.Verify(context.Background(), Request{
		EntityID:        "db-host",
		DestinationIP:   "10.0.0.4",
		DestinationPort: 443,
		Protocol:        "tcp",
	})

	if dec.Granted {
		t.Fatal("expected denial without a matching policy")
	}
	if dec.Reason != core.ReasonNoApplicablePolicy {
		t.Errorf("Reason = %s, want %s", dec.Reason, core.ReasonNoApplicablePolicy)
	}
}

func TestController_Verify_QuarantinedEntity(t *testing.T) {
	h := newHarness(t, 1.1)
	// entity in an unmapped range resolves nowhere, but its registered zone is
	// what counts for the source side
	h.register(t, "quarantined", "192.168.99.1", core.ZoneIsolated, core.TrustPrivileged)

	dec := h.controller.Verify(context.Background(), Request{
		EntityID:        "quarantined",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	})

	// isolated-quarantine has an empty port set, so nothing ever matches
	if dec.Granted {
		t.Fatal("quarantined entity must never be granted")
	}
	if dec.Reason != core.ReasonNoApplicablePolicy {
		t.Errorf("Reason = %s, want %s", dec.Reason, core.ReasonNoApplicablePolicy)
	}
}

func TestController_Verify_TimeWindow(t *testing.T) {
	h := newHarness(t, 1.1)
	h.register(t, "admin-user", "10.0.1.8", core.ZoneInternal, core.TrustPrivileged)

	req := Request{
		EntityID:        "admin-user",
		DestinationIP:   "10.0.3.2",
		DestinationPort: 22,
		Protocol:        "tcp",
	}

	tests := []struct {
		name        string
		at          time.Time
		wantGranted bool
	}{
		{"Midday", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), true},
		{"Start Boundary", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), true},
		{"End Boundary Inclusive", time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), true},
		{"One Second Past End", time.Date(2024, 5, 1, 18, 0, 1, 0, time.UTC), false},
		{"One Second Before Start", time.Date(2024, 5, 1, 7, 59, 59, 0, time.UTC), false},
		{"Midnight", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.controller.now = func() time.Time { return tt.at }
			dec := h.controller.Verify(context.Background(), req)
			if dec.Granted != tt.wantGranted {
				t.Errorf("Granted = %v at %v, want %v (reason %s)", dec.Granted, tt.at, tt.wantGranted, dec.Reason)
			}
			if !tt.wantGranted && dec.Reason != core.ReasonTimeWindowViolation {
				t.Errorf("Reason = %s, want %s", dec.Reason, core.ReasonTimeWindowViolation)
			}
		})
	}
}

func TestController_Verify_NoSessionShortCircuit(t *testing.T) {
	h := newHarness(t, 1.1)
	h.register(t, "web-client", "10.0.0.5", core.ZoneDMZ, core.TrustAuthenticated)

	req := Request{
		EntityID:        "web-client",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	}

	first := h.controller.Verify(context.Background(), req)
	second := h.controller.Verify(context.Background(), req)

	if !first.Granted || !second.Granted {
		t.Fatal("both verifications should be granted")
	}
	// sessions are audit artifacts: each verification opens its own
	if first.Session.SessionID == second.Session.SessionID {
		t.Error("repeated verification reused a session")
	}
}

func TestController_Explain_NoSideEffects(t *testing.T) {
	h := newHarness(t, 0)
	h.register(t, "intruder", "10.0.0.9", core.ZoneDMZ, core.TrustUntrusted)
	audits := h.auditor.count()

	trace := h.controller.Explain(context.Background(), Request{
		EntityID:        "intruder",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	})

	if trace.Granted {
		t.Fatal("expected denial trace")
	}
	if trace.Reason != core.ReasonInsufficientTrust {
		t.Errorf("Reason = %s, want %s", trace.Reason, core.ReasonInsufficientTrust)
	}
	last := trace.Steps[len(trace.Steps)-1]
	if last.Step != StepTrustCheck || last.Passed {
		t.Errorf("trace should end at the failed trust check, got %+v", last)
	}

	if h.auditor.count() != audits {
		t.Error("dry-run wrote an audit entry")
	}
	if len(h.sessions.ListActive()) != 0 {
		t.Error("dry-run created a session")
	}
	select {
	case event := <-h.incidents.ch:
		t.Errorf("dry-run fired an incident: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestController_Explain_GrantedTrace(t *testing.T) {
	h := newHarness(t, 1.1)
	h.register(t, "web-client", "10.0.0.5", core.ZoneDMZ, core.TrustAuthenticated)

	trace := h.controller.Explain(context.Background(), Request{
		EntityID:        "web-client",
		DestinationIP:   "10.0.1.20",
		DestinationPort: 443,
		Protocol:        "tcp",
	})

	if !trace.Granted {
		t.Fatalf("expected granted trace, got reason %s", trace.Reason)
	}
	wantSteps := []Step{StepIdentityLookup, StepZoneResolution, StepPolicyMatch, StepTrustCheck, StepTimeCheck, StepSessionCreate}
	if len(trace.Steps) != len(wantSteps) {
		t.Fatalf("got %d steps, want %d", len(trace.Steps), len(wantSteps))
	}
	for i, want := range wantSteps {
		if trace.Steps[i].Step != want || !trace.Steps[i].Passed {
			t.Errorf("step %d = %+v, want passed %s", i, trace.Steps[i], want)
		}
	}
}
