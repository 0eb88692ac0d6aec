package policy

import "github.com/darmiel/vigil/internal/core"

// DefaultSessionDuration is applied to policies that don't set their own.
const DefaultSessionDuration = 3600

// Defaults returns the seed policy set, in store order. Order matters:
// first-match-wins means a later policy with the same tuple as an earlier one
// is unreachable, and that shadowing is intentional.
func Defaults() []core.NetworkPolicy {
	return []core.NetworkPolicy{
		{
			PolicyID:           "dmz-to-internal",
			SourceZone:         core.ZoneDMZ,
			DestinationZone:    core.ZoneInternal,
			MinTrustLevel:      core.TrustAuthenticated,
			AllowedPorts:       []int{80, 443},
			Protocol:           "tcp",
			RequiresMFA:        true,
			MaxSessionDuration: DefaultSessionDuration,
		},
		{
			PolicyID:           "internal-to-secure",
			SourceZone:         core.ZoneInternal,
			DestinationZone:    core.ZoneSecure,
			MinTrustLevel:      core.TrustVerified,
			AllowedPorts:       []int{8000, 8001, 5432},
			Protocol:           "tcp",
			RequiresMFA:        true,
			MaxSessionDuration: 1800,
		},
		{
			PolicyID:           "admin-access",
			SourceZone:         core.ZoneInternal,
			DestinationZone:    core.ZoneAdmin,
			MinTrustLevel:      core.TrustPrivileged,
			AllowedPorts:       []int{22, 8443},
			Protocol:           "tcp",
			TimeRestriction:    &core.TimeWindow{Start: "08:00", End: "18:00"},
			RequiresMFA:        true,
			MaxSessionDuration: 900,
		},
		{
			// empty allowed_ports: explicit deny-all for quarantined entities
			PolicyID:           "isolated-quarantine",
			SourceZone:         core.ZoneIsolated,
			DestinationZone:    core.ZoneInternal,
			MinTrustLevel:      core.TrustUntrusted,
			AllowedPorts:       []int{},
			Protocol:           "tcp",
			MaxSessionDuration: DefaultSessionDuration,
		},
	}
}
