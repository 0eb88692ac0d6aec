package service

// VerifyRequest asks whether the source entity may reach the destination.
type VerifyRequest struct {
	EntityID        string `json:"entity_id"`
	DestinationIP   string `json:"destination_ip"`
	DestinationPort int    `json:"destination_port"`
	Protocol        string `json:"protocol"`
}

// RegisterRequest enrolls or refreshes a network identity.
type RegisterRequest struct {
	EntityID          string `json:"entity_id"`
	IPAddress         string `json:"ip_address"`
	MACAddress        string `json:"mac_address"`
	DeviceFingerprint string `json:"device_fingerprint"`
	Zone              string `json:"zone"`
}

// TrustChangeRequest raises or lowers an identity's trust level.
// Reason is required for demotions.
type TrustChangeRequest struct {
	Level  string `json:"level"`
	Reason string `json:"reason,omitempty"`
}

// RiskUpdateRequest overwrites an identity's risk score, e.g. from an external
// behavioral detector.
type RiskUpdateRequest struct {
	RiskScore float64 `json:"risk_score"`
}
