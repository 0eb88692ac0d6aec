// Package zone maps IP addresses to network security zones using a static,
// admin-configured CIDR table with longest-prefix matching.
package zone

import (
	"fmt"
	"net/netip"
	"sort"

	"github.com/darmiel/vigil/internal/core"
)

// Mapping binds a CIDR range to a zone.
type Mapping struct {
	CIDR string           `yaml:"cidr" json:"cidr"`
	Zone core.NetworkZone `yaml:"zone" json:"zone"`
}

type entry struct {
	prefix netip.Prefix
	zone   core.NetworkZone
}

// Resolver resolves IP addresses to zones. It is immutable after construction
// and safe for concurrent use; Resolve is a pure function over the table.
type Resolver struct {
	entries     []entry
	defaultZone core.NetworkZone
}

// NewResolver builds a resolver from the given mappings. An IP matching no
// range resolves to defaultZone; pass core.ZoneIsolated to fail closed.
func NewResolver(mappings []Mapping, defaultZone core.NetworkZone) (*Resolver, error) {
	if !defaultZone.IsValid() {
		return nil, fmt.Errorf("invalid default zone '%s'", defaultZone)
	}

	entries := make([]entry, 0, len(mappings))
	for i, m := range mappings {
		prefix, err := netip.ParsePrefix(m.CIDR)
		if err != nil {
			return nil, fmt.Errorf("zone mapping #%d: parsing CIDR '%s': %w", i, m.CIDR, err)
		}
		if !m.Zone.IsValid() {
			return nil, fmt.Errorf("zone mapping #%d: unknown zone '%s'", i, m.Zone)
		}
		entries = append(entries, entry{prefix: prefix.Masked(), zone: m.Zone})
	}

	// most specific prefix first, so the first hit wins the longest-prefix match
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].prefix.Bits() > entries[j].prefix.Bits()
	})

	return &Resolver{entries: entries, defaultZone: defaultZone}, nil
}

// Resolve maps an IP address to its zone. Unparseable or unmatched addresses
// resolve to the default zone.
func (r *Resolver) Resolve(ip string) core.NetworkZone {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return r.defaultZone
	}
	for _, e := range r.entries {
		if e.prefix.Contains(addr) {
			return e.zone
		}
	}
	return r.defaultZone
}

// DefaultZone returns the fail-closed fallback zone.
func (r *Resolver) DefaultZone() core.NetworkZone {
	return r.defaultZone
}
