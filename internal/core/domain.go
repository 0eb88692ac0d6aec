package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr/vm"
)

// TrustLevel is the ordinal confidence rating assigned to a network identity.
// Comparisons between trust levels are plain integer comparisons.
type TrustLevel int

const (
	TrustUntrusted     TrustLevel = 0
	TrustBasic         TrustLevel = 1
	TrustAuthenticated TrustLevel = 2
	TrustVerified      TrustLevel = 3
	TrustPrivileged    TrustLevel = 4
)

var trustLevelNames = map[TrustLevel]string{
	TrustUntrusted:     "untrusted",
	TrustBasic:         "basic",
	TrustAuthenticated: "authenticated",
	TrustVerified:      "verified",
	TrustPrivileged:    "privileged",
}

func (t TrustLevel) String() string {
	if name, ok := trustLevelNames[t]; ok {
		return name
	}
	return fmt.Sprintf("trust(%d)", int(t))
}

func (t TrustLevel) IsValid() bool {
	_, ok := trustLevelNames[t]
	return ok
}

// ParseTrustLevel converts the wire/config name of a trust level back to its value.
func ParseTrustLevel(s string) (TrustLevel, error) {
	for level, name := range trustLevelNames {
		if name == strings.ToLower(s) {
			return level, nil
		}
	}
	return TrustUntrusted, fmt.Errorf("unknown trust level '%s'", s)
}

func (t TrustLevel) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid trust level %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *TrustLevel) UnmarshalText(data []byte) error {
	level, err := ParseTrustLevel(string(data))
	if err != nil {
		return err
	}
	*t = level
	return nil
}

// NetworkZone is a named network security segment. Zones carry no implicit
// ordering; relationships between zones exist only through policies.
type NetworkZone string

const (
	ZoneDMZ      NetworkZone = "dmz"
	ZoneInternal NetworkZone = "internal"
	ZoneSecure   NetworkZone = "secure"
	ZoneAdmin    NetworkZone = "admin"
	ZoneIsolated NetworkZone = "isolated"
)

func (z NetworkZone) IsValid() bool {
	switch z {
	case ZoneDMZ, ZoneInternal, ZoneSecure, ZoneAdmin, ZoneIsolated:
		return true
	default:
		return false
	}
}

// ParseZone validates and normalizes a zone name.
func ParseZone(s string) (NetworkZone, error) {
	z := NetworkZone(strings.ToLower(s))
	if !z.IsValid() {
		return "", fmt.Errorf("unknown network zone '%s'", s)
	}
	return z, nil
}

// NetworkIdentity represents a network entity (host, user or device) and its
// current trust attributes. Identities are created on registration and mutated
// on re-registration or external risk-score updates; they are never removed
// implicitly.
type NetworkIdentity struct {
	EntityID          string      `json:"entity_id"`
	IPAddress         string      `json:"ip_address"`
	MACAddress        string      `json:"mac_address"`
	DeviceFingerprint string      `json:"device_fingerprint"`
	TrustLevel        TrustLevel  `json:"trust_level"`
	Zone              NetworkZone `json:"zone"`
	LastVerified      time.Time   `json:"last_verified"`
	CertThumbprint    string      `json:"cert_thumbprint,omitempty"`

	// RiskScore is a continuous [0,1] estimate of how risky this entity is.
	// Higher means riskier. It stays consistent with TrustLevel through the
	// evaluator's mapping.
	RiskScore float64 `json:"risk_score"`
}

// TimeWindow restricts a policy to a daily wall-clock window, bounds inclusive.
// A window whose End lies before its Start spans midnight, so "22:00"–"06:00"
// matches 23:00 as well as 02:00.
type TimeWindow struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time '%s' (expected HH:MM): %w", s, err)
	}
	return t.Hour()*3600 + t.Minute()*60, nil
}

func (w TimeWindow) Validate() error {
	if _, err := parseClock(w.Start); err != nil {
		return err
	}
	if _, err := parseClock(w.End); err != nil {
		return err
	}
	return nil
}

// Contains reports whether the given instant falls inside the window.
// Malformed windows never contain anything; absence of information denies.
func (w TimeWindow) Contains(at time.Time) bool {
	start, err := parseClock(w.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(w.End)
	if err != nil {
		return false
	}

	cur := at.Hour()*3600 + at.Minute()*60 + at.Second()
	if start <= end {
		return cur >= start && cur <= end
	}
	// overnight window
	return cur >= start || cur <= end
}

// NetworkPolicy is an allow-rule permitting traffic between a zone pair under
// port, protocol, trust and time constraints. A policy with an empty
// AllowedPorts set never matches any port, which realizes an explicit deny-all
// for its zone pair.
type NetworkPolicy struct {
	PolicyID        string      `yaml:"policy_id" json:"policy_id"`
	SourceZone      NetworkZone `yaml:"source_zone" json:"source_zone"`
	DestinationZone NetworkZone `yaml:"destination_zone" json:"destination_zone"`
	MinTrustLevel   TrustLevel  `yaml:"min_trust_level" json:"min_trust_level"`
	AllowedPorts    []int       `yaml:"allowed_ports" json:"allowed_ports"`
	Protocol        string      `yaml:"protocol" json:"protocol"`
	TimeRestriction *TimeWindow `yaml:"time_restriction,omitempty" json:"time_restriction,omitempty"`

	// RequiresMFA is informational. It is consulted by the caller's
	// authentication layer and not enforced by the decision pipeline.
	RequiresMFA bool `yaml:"requires_mfa" json:"requires_mfa"`

	// MaxSessionDuration is the lifetime of sessions granted under this policy,
	// in seconds. Must be > 0.
	MaxSessionDuration int `yaml:"max_session_duration" json:"max_session_duration"`

	// Expr is an optional expression for more complex matching logic, evaluated
	// against the request after the structural checks pass.
	// Leaving this empty means no expression-based restriction.
	Expr string `yaml:"expr,omitempty" json:"expr,omitempty"`

	// CompiledExpr holds the pre-compiled form of Expr for efficient evaluation.
	CompiledExpr *vm.Program `yaml:"-" json:"-"`
}

// SessionTTL returns MaxSessionDuration as a duration.
func (p NetworkPolicy) SessionTTL() time.Duration {
	return time.Duration(p.MaxSessionDuration) * time.Second
}

// AllowsPort reports whether the destination port is in the allowed set.
func (p NetworkPolicy) AllowsPort(port int) bool {
	for _, allowed := range p.AllowedPorts {
		if allowed == port {
			return true
		}
	}
	return false
}

// AccessSession is a time-bounded record of a granted access decision. It is
// an audit artifact, not a capability token: every verification re-runs the
// full pipeline regardless of existing sessions.
type AccessSession struct {
	SessionID       string    `json:"session_id"`
	SourceEntity    string    `json:"source_entity"`
	DestinationIP   string    `json:"destination_ip"`
	DestinationPort int       `json:"destination_port"`
	PolicyID        string    `json:"policy_id"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Active reports whether the session has not expired at the given instant.
func (s AccessSession) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
