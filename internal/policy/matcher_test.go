package policy

import (
	"testing"

	"github.com/expr-lang/expr"

	"github.com/darmiel/vigil/internal/core"
)

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(NewStore(Defaults(), nil))

	tests := []struct {
		name       string
		sourceZone core.NetworkZone
		destZone   core.NetworkZone
		port       int
		protocol   string
		wantPolicy string
		wantOK     bool
	}{
		{"DMZ Web Access", core.ZoneDMZ, core.ZoneInternal, 443, "tcp", "dmz-to-internal", true},
		{"Internal To Secure DB", core.ZoneInternal, core.ZoneSecure, 5432, "tcp", "internal-to-secure", true},
		{"Admin SSH", core.ZoneInternal, core.ZoneAdmin, 22, "tcp", "admin-access", true},
		{"Protocol Case Insensitive", core.ZoneDMZ, core.ZoneInternal, 80, "TCP", "dmz-to-internal", true},
		{"Port Not Allowed", core.ZoneDMZ, core.ZoneInternal, 22, "tcp", "", false},
		{"Protocol Mismatch", core.ZoneDMZ, core.ZoneInternal, 443, "udp", "", false},
		{"No Policy For Zone Pair", core.ZoneSecure, core.ZoneDMZ, 443, "tcp", "", false},
		{"Quarantine Denies Every Port", core.ZoneIsolated, core.ZoneInternal, 80, "tcp", "", false},
		{"Quarantine Denies High Port", core.ZoneIsolated, core.ZoneInternal, 31337, "tcp", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := m.Match(tt.sourceZone, tt.destZone, tt.port, tt.protocol)
			if ok != tt.wantOK {
				t.Fatalf("Match() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && p.PolicyID != tt.wantPolicy {
				t.Errorf("Match() policy = %s, want %s", p.PolicyID, tt.wantPolicy)
			}
		})
	}
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	s := NewStore(nil, nil)
	first := core.NetworkPolicy{
		PolicyID:           "earlier",
		SourceZone:         core.ZoneDMZ,
		DestinationZone:    core.ZoneInternal,
		MinTrustLevel:      core.TrustVerified,
		AllowedPorts:       []int{443},
		Protocol:           "tcp",
		MaxSessionDuration: 60,
	}
	shadowed := first
	shadowed.PolicyID = "later"
	shadowed.MinTrustLevel = core.TrustUntrusted

	if err := s.Add(first); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if err := s.Add(shadowed); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}

	// the later policy with an identical tuple is unreachable, by design
	p, ok := NewMatcher(s).Match(core.ZoneDMZ, core.ZoneInternal, 443, "tcp")
	if !ok {
		t.Fatal("Match() found no policy")
	}
	if p.PolicyID != "earlier" {
		t.Errorf("Match() policy = %s, want earlier", p.PolicyID)
	}
}

func TestMatcher_Expression(t *testing.T) {
	program, err := expr.Compile(`port >= 8000 && port <= 8999`, expr.AsBool())
	if err != nil {
		t.Fatalf("compiling expression: %v", err)
	}

	s := NewStore([]core.NetworkPolicy{{
		PolicyID:           "app-ports-only",
		SourceZone:         core.ZoneInternal,
		DestinationZone:    core.ZoneSecure,
		AllowedPorts:       []int{8080, 9090},
		Protocol:           "tcp",
		MaxSessionDuration: 60,
		Expr:               `port >= 8000 && port <= 8999`,
		CompiledExpr:       program,
	}}, nil)
	m := NewMatcher(s)

	if _, ok := m.Match(core.ZoneInternal, core.ZoneSecure, 8080, "tcp"); !ok {
		t.Error("expected match for port 8080")
	}
	// structurally allowed but rejected by the expression
	if _, ok := m.Match(core.ZoneInternal, core.ZoneSecure, 9090, "tcp"); ok {
		t.Error("expected expression to reject port 9090")
	}
}

func TestMatcher_ObservesStoreMutations(t *testing.T) {
	s := NewStore(nil, nil)
	m := NewMatcher(s)

	if _, ok := m.Match(core.ZoneDMZ, core.ZoneInternal, 443, "tcp"); ok {
		t.Fatal("unexpected match on empty store")
	}

	if err := s.Add(core.NetworkPolicy{
		PolicyID:           "web",
		SourceZone:         core.ZoneDMZ,
		DestinationZone:    core.ZoneInternal,
		AllowedPorts:       []int{443},
		Protocol:           "tcp",
		MaxSessionDuration: 60,
	}); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if _, ok := m.Match(core.ZoneDMZ, core.ZoneInternal, 443, "tcp"); !ok {
		t.Error("expected match after Add")
	}

	if err := s.Remove("web"); err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if _, ok := m.Match(core.ZoneDMZ, core.ZoneInternal, 443, "tcp"); ok {
		t.Error("expected no match after Remove")
	}
}
