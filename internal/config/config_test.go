package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/darmiel/vigil/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const sampleConfig = `
zones:
  default: isolated
  mappings:
    - cidr: 10.0.0.0/24
      zone: dmz
    - cidr: 10.0.1.0/24
      zone: internal

policies:
  - policy_id: custom-web
    source_zone: dmz
    destination_zone: internal
    min_trust_level: authenticated
    allowed_ports: [8080]
    protocol: tcp
    max_session_duration: 600
    expr: "port == 8080"

incidents:
  sink:
    type: log
  risk_threshold: 0.9

audit:
  enabled: true
  type: memory

sessions:
  sweep_interval: 30s
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Zones.Default != core.ZoneIsolated {
		t.Errorf("default zone = %s, want isolated", cfg.Zones.Default)
	}
	if len(cfg.Zones.Mappings) != 2 {
		t.Errorf("got %d zone mappings, want 2", len(cfg.Zones.Mappings))
	}
	if len(cfg.Policies) != 1 || cfg.Policies[0].PolicyID != "custom-web" {
		t.Fatalf("policies = %+v", cfg.Policies)
	}
	if cfg.Policies[0].CompiledExpr == nil {
		t.Error("policy expression was not compiled during validation")
	}
	if cfg.Policies[0].MinTrustLevel != core.TrustAuthenticated {
		t.Errorf("min trust = %s", cfg.Policies[0].MinTrustLevel)
	}
	if !cfg.SeedDefaults() {
		t.Error("SeedDefaults() should default to true")
	}
	if cfg.RiskThreshold() != 0.9 {
		t.Errorf("RiskThreshold() = %v, want 0.9", cfg.RiskThreshold())
	}
	if cfg.SweepInterval() != 30*time.Second {
		t.Errorf("SweepInterval() = %v, want 30s", cfg.SweepInterval())
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Zones.Default != core.ZoneIsolated {
		t.Errorf("default zone should fail closed to isolated, got %s", cfg.Zones.Default)
	}
	if cfg.RiskThreshold() != DefaultRiskThreshold {
		t.Errorf("RiskThreshold() = %v, want %v", cfg.RiskThreshold(), DefaultRiskThreshold)
	}
	if cfg.SweepInterval() != DefaultSweepInterval {
		t.Errorf("SweepInterval() = %v, want %v", cfg.SweepInterval(), DefaultSweepInterval)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"Unknown Default Zone",
			"zones:\n  default: moon\n",
			"unknown default zone",
		},
		{
			"Bad Policy",
			"policies:\n  - policy_id: p\n    source_zone: dmz\n    destination_zone: internal\n    min_trust_level: basic\n    protocol: tcp\n    max_session_duration: 0\n",
			"max_session_duration",
		},
		{
			"Threshold Out Of Range",
			"incidents:\n  risk_threshold: 1.5\n",
			"risk_threshold",
		},
		{
			"File Audit Without Path",
			"audit:\n  enabled: true\n  type: file\n",
			"audit.path",
		},
		{
			"Redis Without Addr",
			"store:\n  type: redis\n",
			"store.redis.addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
