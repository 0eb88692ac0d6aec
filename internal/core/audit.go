package core

import "time"

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "access.verify", "policy.add")
	Action string `json:"action"`

	// EntityID identifies the source entity of the request
	EntityID string `json:"entity_id,omitempty"`

	// Request details
	DestinationIP   string `json:"destination_ip,omitempty"`
	DestinationPort int    `json:"destination_port,omitempty"`
	Protocol        string `json:"protocol,omitempty"`

	// Decision details
	SourceZone      NetworkZone `json:"source_zone,omitempty"`
	DestinationZone NetworkZone `json:"destination_zone,omitempty"`
	PolicyID        string      `json:"policy_id,omitempty"`
	SessionID       string      `json:"session_id,omitempty"`
	Granted         bool        `json:"granted"`
	Reason          Reason      `json:"reason,omitempty"`
	RiskScore       float64     `json:"risk_score,omitempty"`
	Error           string      `json:"error,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}

// AuditReader is implemented by auditors that can be queried back, like the
// in-memory auditor. File-backed auditors are write-only.
type AuditReader interface {
	GetRecent(limit int) ([]AuditEntry, error)
	Find(filter func(entry AuditEntry) bool, limit int) ([]AuditEntry, error)
}
