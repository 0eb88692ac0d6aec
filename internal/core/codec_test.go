package core

import (
	"testing"
	"time"
)

func TestIdentityCodec(t *testing.T) {
	original := NetworkIdentity{
		EntityID:          "host-01",
		IPAddress:         "172.20.10.100",
		MACAddress:        "00:11:22:33:44:55",
		DeviceFingerprint: "fp-abc",
		TrustLevel:        TrustAuthenticated,
		Zone:              ZoneInternal,
		LastVerified:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		RiskScore:         0.25,
	}

	decoded, err := DecodeIdentity(EncodeIdentity(original))
	if err != nil {
		t.Fatalf("DecodeIdentity() unexpected error: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

func TestDecodeIdentity_RejectsUnknownVersion(t *testing.T) {
	fields := EncodeIdentity(NetworkIdentity{
		EntityID: "e1", TrustLevel: TrustBasic, Zone: ZoneDMZ,
	})
	fields["version"] = "99"
	if _, err := DecodeIdentity(fields); err == nil {
		t.Error("expected error for unknown record version")
	}
}

func TestPolicyCodec(t *testing.T) {
	original := NetworkPolicy{
		PolicyID:           "admin-access",
		SourceZone:         ZoneInternal,
		DestinationZone:    ZoneAdmin,
		MinTrustLevel:      TrustPrivileged,
		AllowedPorts:       []int{22, 8443},
		Protocol:           "tcp",
		TimeRestriction:    &TimeWindow{Start: "08:00", End: "18:00"},
		RequiresMFA:        true,
		MaxSessionDuration: 900,
	}

	data, err := EncodePolicy(original)
	if err != nil {
		t.Fatalf("EncodePolicy() unexpected error: %v", err)
	}
	decoded, err := DecodePolicy(data)
	if err != nil {
		t.Fatalf("DecodePolicy() unexpected error: %v", err)
	}

	if decoded.PolicyID != original.PolicyID ||
		decoded.MinTrustLevel != original.MinTrustLevel ||
		decoded.MaxSessionDuration != original.MaxSessionDuration {
		t.Errorf("round trip mismatch: got %+v", decoded)
	}
	if decoded.TimeRestriction == nil || *decoded.TimeRestriction != *original.TimeRestriction {
		t.Errorf("time restriction lost in round trip: got %+v", decoded.TimeRestriction)
	}
}
