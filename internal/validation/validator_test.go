package validation

import (
	"strings"
	"testing"

	"github.com/darmiel/vigil/internal/core"
)

func validPolicy(id string) core.NetworkPolicy {
	return core.NetworkPolicy{
		PolicyID:           id,
		SourceZone:         core.ZoneDMZ,
		DestinationZone:    core.ZoneInternal,
		MinTrustLevel:      core.TrustAuthenticated,
		AllowedPorts:       []int{80, 443},
		Protocol:           "tcp",
		MaxSessionDuration: 3600,
	}
}

func TestValidatePolicies(t *testing.T) {
	policies, err := ValidatePolicies([]core.NetworkPolicy{validPolicy("a"), validPolicy("b")})
	if err != nil {
		t.Fatalf("ValidatePolicies() unexpected error: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("got %d policies, want 2", len(policies))
	}
}

func TestValidatePolicies_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.NetworkPolicy)
		wantErr string
	}{
		{"Missing ID", func(p *core.NetworkPolicy) { p.PolicyID = "" }, "missing policy_id"},
		{"Bad Source Zone", func(p *core.NetworkPolicy) { p.SourceZone = "moon" }, "unknown source zone"},
		{"Bad Destination Zone", func(p *core.NetworkPolicy) { p.DestinationZone = "mars" }, "unknown destination zone"},
		{"Bad Trust Level", func(p *core.NetworkPolicy) { p.MinTrustLevel = 99 }, "invalid min trust level"},
		{"Bad Port", func(p *core.NetworkPolicy) { p.AllowedPorts = []int{70000} }, "invalid port"},
		{"Missing Protocol", func(p *core.NetworkPolicy) { p.Protocol = " " }, "missing protocol"},
		{"Zero Session Duration", func(p *core.NetworkPolicy) { p.MaxSessionDuration = 0 }, "max_session_duration"},
		{"Bad Time Window", func(p *core.NetworkPolicy) {
			p.TimeRestriction = &core.TimeWindow{Start: "25:00", End: "18:00"}
		}, "invalid time restriction"},
		{"Bad Expression", func(p *core.NetworkPolicy) { p.Expr = "port +" }, "compiling expr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPolicy("p")
			tt.mutate(&p)
			_, err := ValidatePolicies([]core.NetworkPolicy{p})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePolicies_DuplicateID(t *testing.T) {
	_, err := ValidatePolicies([]core.NetworkPolicy{validPolicy("dup"), validPolicy("dup")})
	if err == nil || !strings.Contains(err.Error(), "not unique") {
		t.Errorf("expected uniqueness error, got %v", err)
	}
}

func TestValidatePolicies_EmptyPortsAllowed(t *testing.T) {
	p := validPolicy("deny-all")
	p.AllowedPorts = []int{}
	if _, err := ValidatePolicies([]core.NetworkPolicy{p}); err != nil {
		t.Errorf("empty port list should validate, got %v", err)
	}
}

func TestValidatePolicies_CompilesExpression(t *testing.T) {
	p := validPolicy("expr")
	p.Expr = `port == 443`
	policies, err := ValidatePolicies([]core.NetworkPolicy{p})
	if err != nil {
		t.Fatalf("ValidatePolicies() unexpected error: %v", err)
	}
	if policies[0].CompiledExpr == nil {
		t.Error("expression was not compiled")
	}
}
