package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/darmiel/vigil/internal/core"
	"github.com/darmiel/vigil/internal/identity"
	"github.com/darmiel/vigil/internal/incident"
	"github.com/darmiel/vigil/internal/reputation"
	"github.com/darmiel/vigil/internal/store"
	"github.com/darmiel/vigil/internal/validation"
	"github.com/darmiel/vigil/internal/zone"
)

type Config struct {
	Zones    ZonesConfig          `yaml:"zones"`
	Policies []core.NetworkPolicy `yaml:"policies"`

	// SeedDefaultPolicies prepends the built-in policy set before any policies
	// from this file. Defaults to true; set to false for a fully custom set.
	SeedDefaultPolicies *bool `yaml:"seed_default_policies"`

	// Trust overrides the risk/trust tunables. Omitted fields do NOT merge;
	// either leave the whole block out or set every field.
	Trust *identity.EvaluatorConfig `yaml:"trust"`

	Reputation reputation.Config `yaml:"reputation"`
	Incidents  IncidentsConfig   `yaml:"incidents"`
	Audit      AuditConfig       `yaml:"audit"`
	Store      StoreConfig       `yaml:"store"`
	Sessions   SessionsConfig    `yaml:"sessions"`
}

// ZonesConfig holds the CIDR-to-zone table.
type ZonesConfig struct {
	// Default is the zone for addresses no mapping covers. Empty means
	// isolated, which fails closed.
	Default  core.NetworkZone `yaml:"default"`
	Mappings []zone.Mapping   `yaml:"mappings"`
}

// IncidentsConfig wires denials of risky identities to an incident sink.
type IncidentsConfig struct {
	Sink incident.Config `yaml:"sink"`

	// RiskThreshold is the minimum identity risk score at which a denial emits
	// an incident event.
	RiskThreshold *float64 `yaml:"risk_threshold"`
}

// DefaultRiskThreshold applies when incidents.risk_threshold is unset.
const DefaultRiskThreshold = 0.7

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"

	// Capacity bounds the in-memory auditor. Zero uses the built-in default.
	Capacity int `yaml:"capacity"`
}

// StoreConfig selects the snapshot persistence backend.
type StoreConfig struct {
	Type  string            `yaml:"type"` // e.g., "redis", "memory"
	Redis store.RedisConfig `yaml:"redis"`
}

// SessionsConfig tunes the background session sweeper.
type SessionsConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultSweepInterval applies when sessions.sweep_interval is unset.
const DefaultSweepInterval = time.Minute

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Zones.Default == "" {
		c.Zones.Default = core.ZoneIsolated
	}
	if !c.Zones.Default.IsValid() {
		return fmt.Errorf("unknown default zone '%s'", c.Zones.Default)
	}
	for i, m := range c.Zones.Mappings {
		if !m.Zone.IsValid() {
			return fmt.Errorf("zone mapping #%d: unknown zone '%s'", i, m.Zone)
		}
	}

	validPolicies, err := validation.ValidatePolicies(c.Policies)
	if err != nil {
		return fmt.Errorf("validating policies: %w", err)
	}
	c.Policies = validPolicies

	if c.Incidents.RiskThreshold != nil {
		if t := *c.Incidents.RiskThreshold; t < 0 || t > 1 {
			return fmt.Errorf("incidents.risk_threshold %v outside [0,1]", t)
		}
	}

	if c.Audit.Enabled && c.Audit.Type == "file" && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required for the file auditor")
	}

	if c.Store.Type == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required for the redis store")
	}

	if c.Sessions.SweepInterval < 0 {
		return fmt.Errorf("sessions.sweep_interval must not be negative")
	}

	return nil
}

// SeedDefaults reports whether the built-in policy set should be loaded.
func (c *Config) SeedDefaults() bool {
	return c.SeedDefaultPolicies == nil || *c.SeedDefaultPolicies
}

// RiskThreshold returns the configured incident threshold or the default.
func (c *Config) RiskThreshold() float64 {
	if c.Incidents.RiskThreshold != nil {
		return *c.Incidents.RiskThreshold
	}
	return DefaultRiskThreshold
}

// SweepInterval returns the configured sweep interval or the default.
func (c *Config) SweepInterval() time.Duration {
	if c.Sessions.SweepInterval > 0 {
		return c.Sessions.SweepInterval
	}
	return DefaultSweepInterval
}

// EvaluatorConfig returns the trust tunables, falling back to the defaults.
func (c *Config) EvaluatorConfig() identity.EvaluatorConfig {
	if c.Trust != nil {
		return *c.Trust
	}
	return identity.DefaultEvaluatorConfig()
}
