package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Persisted record encodings are explicit and versioned, field by field.
// Reflection-style dumping of whole structs is deliberately avoided so that
// the stored shape is stable across refactors.

const (
	identityCodecVersion = "1"
	policyCodecVersion   = 1
	sessionCodecVersion  = 1
)

// EncodeIdentity renders an identity as a flat hash-map suitable for HSET.
func EncodeIdentity(id NetworkIdentity) map[string]string {
	fields := map[string]string{
		"version":            identityCodecVersion,
		"entity_id":          id.EntityID,
		"ip_address":         id.IPAddress,
		"mac_address":        id.MACAddress,
		"device_fingerprint": id.DeviceFingerprint,
		"trust_level":        id.TrustLevel.String(),
		"zone":               string(id.Zone),
		"last_verified":      id.LastVerified.UTC().Format(time.RFC3339Nano),
		"risk_score":         strconv.FormatFloat(id.RiskScore, 'f', -1, 64),
	}
	if id.CertThumbprint != "" {
		fields["cert_thumbprint"] = id.CertThumbprint
	}
	return fields
}

// DecodeIdentity parses a hash-map written by EncodeIdentity.
func DecodeIdentity(fields map[string]string) (NetworkIdentity, error) {
	var id NetworkIdentity

	if v := fields["version"]; v != identityCodecVersion {
		return id, fmt.Errorf("unsupported identity record version '%s'", v)
	}

	id.EntityID = fields["entity_id"]
	if id.EntityID == "" {
		return id, fmt.Errorf("identity record missing entity_id")
	}
	id.IPAddress = fields["ip_address"]
	id.MACAddress = fields["mac_address"]
	id.DeviceFingerprint = fields["device_fingerprint"]
	id.CertThumbprint = fields["cert_thumbprint"]

	level, err := ParseTrustLevel(fields["trust_level"])
	if err != nil {
		return id, err
	}
	id.TrustLevel = level

	zone, err := ParseZone(fields["zone"])
	if err != nil {
		return id, err
	}
	id.Zone = zone

	if raw := fields["last_verified"]; raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return id, fmt.Errorf("parsing last_verified: %w", err)
		}
		id.LastVerified = ts
	}

	if raw := fields["risk_score"]; raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return id, fmt.Errorf("parsing risk_score: %w", err)
		}
		id.RiskScore = score
	}

	return id, nil
}

// policyDocument is the persisted JSON shape of a policy. Expressions are
// stored as source text; compiled programs never leave the process.
type policyDocument struct {
	Version         int     `json:"version"`
	PolicyID        string  `json:"policy_id"`
	SourceZone      string  `json:"source_zone"`
	DestinationZone string  `json:"destination_zone"`
	MinTrustLevel   string  `json:"min_trust_level"`
	AllowedPorts    []int   `json:"allowed_ports"`
	Protocol        string  `json:"protocol"`
	WindowStart     string  `json:"window_start,omitempty"`
	WindowEnd       string  `json:"window_end,omitempty"`
	RequiresMFA     bool    `json:"requires_mfa"`
	MaxSessionSecs  int     `json:"max_session_duration"`
	Expr            string  `json:"expr,omitempty"`
}

// EncodePolicy renders a policy as a versioned JSON document.
func EncodePolicy(p NetworkPolicy) ([]byte, error) {
	doc := policyDocument{
		Version:         policyCodecVersion,
		PolicyID:        p.PolicyID,
		SourceZone:      string(p.SourceZone),
		DestinationZone: string(p.DestinationZone),
		MinTrustLevel:   p.MinTrustLevel.String(),
		AllowedPorts:    p.AllowedPorts,
		Protocol:        p.Protocol,
		RequiresMFA:     p.RequiresMFA,
		MaxSessionSecs:  p.MaxSessionDuration,
		Expr:            p.Expr,
	}
	if p.TimeRestriction != nil {
		doc.WindowStart = p.TimeRestriction.Start
		doc.WindowEnd = p.TimeRestriction.End
	}
	return json.Marshal(doc)
}

// DecodePolicy parses a document written by EncodePolicy. The expression, if
// any, is returned uncompiled; callers revalidate before use.
func DecodePolicy(data []byte) (NetworkPolicy, error) {
	var doc policyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return NetworkPolicy{}, fmt.Errorf("parsing policy document: %w", err)
	}
	if doc.Version != policyCodecVersion {
		return NetworkPolicy{}, fmt.Errorf("unsupported policy document version %d", doc.Version)
	}

	level, err := ParseTrustLevel(doc.MinTrustLevel)
	if err != nil {
		return NetworkPolicy{}, err
	}
	sourceZone, err := ParseZone(doc.SourceZone)
	if err != nil {
		return NetworkPolicy{}, err
	}
	destZone, err := ParseZone(doc.DestinationZone)
	if err != nil {
		return NetworkPolicy{}, err
	}

	p := NetworkPolicy{
		PolicyID:           doc.PolicyID,
		SourceZone:         sourceZone,
		DestinationZone:    destZone,
		MinTrustLevel:      level,
		AllowedPorts:       doc.AllowedPorts,
		Protocol:           doc.Protocol,
		RequiresMFA:        doc.RequiresMFA,
		MaxSessionDuration: doc.MaxSessionSecs,
		Expr:               doc.Expr,
	}
	if doc.WindowStart != "" || doc.WindowEnd != "" {
		p.TimeRestriction = &TimeWindow{Start: doc.WindowStart, End: doc.WindowEnd}
	}
	return p, nil
}

// sessionDocument is the persisted JSON shape of a session.
type sessionDocument struct {
	Version         int    `json:"version"`
	SessionID       string `json:"session_id"`
	SourceEntity    string `json:"source_entity"`
	DestinationIP   string `json:"destination_ip"`
	DestinationPort int    `json:"destination_port"`
	PolicyID        string `json:"policy_id"`
	CreatedAt       string `json:"created_at"`
	ExpiresAt       string `json:"expires_at"`
}

// EncodeSession renders a session as a versioned JSON document.
func EncodeSession(s AccessSession) ([]byte, error) {
	return json.Marshal(sessionDocument{
		Version:         sessionCodecVersion,
		SessionID:       s.SessionID,
		SourceEntity:    s.SourceEntity,
		DestinationIP:   s.DestinationIP,
		DestinationPort: s.DestinationPort,
		PolicyID:        s.PolicyID,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339Nano),
		ExpiresAt:       s.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

// DecodeSession parses a document written by EncodeSession.
func DecodeSession(data []byte) (AccessSession, error) {
	var doc sessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return AccessSession{}, fmt.Errorf("parsing session document: %w", err)
	}
	if doc.Version != sessionCodecVersion {
		return AccessSession{}, fmt.Errorf("unsupported session document version %d", doc.Version)
	}

	s := AccessSession{
		SessionID:       doc.SessionID,
		SourceEntity:    doc.SourceEntity,
		DestinationIP:   doc.DestinationIP,
		DestinationPort: doc.DestinationPort,
		PolicyID:        doc.PolicyID,
	}

	var err error
	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, doc.CreatedAt); err != nil {
		return AccessSession{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if s.ExpiresAt, err = time.Parse(time.RFC3339Nano, doc.ExpiresAt); err != nil {
		return AccessSession{}, fmt.Errorf("parsing expires_at: %w", err)
	}
	return s, nil
}

// FormatClock renders an instant as the HH:MM:SS form used in audit messages.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// NormalizeProtocol lowercases protocol names so matching is case-insensitive
// at the API boundary.
func NormalizeProtocol(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
