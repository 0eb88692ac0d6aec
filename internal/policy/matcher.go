package policy

import (
	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/core"
)

// Matcher selects the applicable policy for a request tuple.
type Matcher struct {
	store *Store
}

func NewMatcher(store *Store) *Matcher {
	return &Matcher{store: store}
}

// Match scans the store in insertion order and returns a copy of the first
// policy whose zones and protocol match exactly and whose allowed-port set
// contains the destination port. First-match-wins is the tie-break for
// overlapping policies. The returned copy keeps a granted session independent
// of later store mutations.
func (m *Matcher) Match(sourceZone, destZone core.NetworkZone, destPort int, protocol string) (core.NetworkPolicy, bool) {
	protocol = core.NormalizeProtocol(protocol)

	for _, p := range m.store.sequence() {
		if !matches(p, sourceZone, destZone, destPort, protocol) {
			continue
		}
		return p, true
	}
	return core.NetworkPolicy{}, false
}

func matches(p core.NetworkPolicy, sourceZone, destZone core.NetworkZone, destPort int, protocol string) bool {
	if p.SourceZone != sourceZone || p.DestinationZone != destZone {
		return false
	}
	if core.NormalizeProtocol(p.Protocol) != protocol {
		return false
	}
	// an empty allowed-port set never matches any port (explicit deny-all)
	if !p.AllowsPort(destPort) {
		return false
	}
	if p.CompiledExpr != nil {
		out, err := expr.Run(p.CompiledExpr, map[string]any{
			"source_zone":      string(sourceZone),
			"destination_zone": string(destZone),
			"port":             destPort,
			"protocol":         protocol,
		})
		if err != nil {
			log.Warn().Err(err).Str("policy_id", p.PolicyID).Msg("error evaluating policy expression")
			return false // fail closed
		}
		b, ok := out.(bool)
		if !ok || !b {
			return false
		}
	}
	return true
}
