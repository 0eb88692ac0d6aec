package reputation

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/vigil/internal/core"
)

var _ core.ReputationSource = (*StaticSource)(nil)

type staticOptions struct {
	// Scores maps CIDR ranges to risk scores in [0,1].
	Scores map[string]float64 `mapstructure:"scores"`

	// Default is returned for addresses outside every configured range.
	Default float64 `mapstructure:"default"`
}

type staticEntry struct {
	prefix netip.Prefix
	score  float64
}

// StaticSource scores IP addresses from an admin-maintained CIDR table. Useful
// for pinning known-bad ranges without an external feed.
type StaticSource struct {
	entries      []staticEntry
	defaultScore float64
}

func NewStaticSource(options map[string]any) (*StaticSource, error) {
	var opts staticOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("decoding static reputation options: %w", err)
	}

	entries := make([]staticEntry, 0, len(opts.Scores))
	for cidr, score := range opts.Scores {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("parsing reputation CIDR '%s': %w", cidr, err)
		}
		if score < 0 || score > 1 {
			return nil, fmt.Errorf("reputation score %v for '%s' outside [0,1]", score, cidr)
		}
		entries = append(entries, staticEntry{prefix: prefix.Masked(), score: score})
	}
	if opts.Default < 0 || opts.Default > 1 {
		return nil, fmt.Errorf("default reputation score %v outside [0,1]", opts.Default)
	}

	return &StaticSource{entries: entries, defaultScore: opts.Default}, nil
}

func (s *StaticSource) Name() string {
	return "static"
}

func (s *StaticSource) Score(_ context.Context, ip string) (float64, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return 0, fmt.Errorf("parsing address '%s': %w", ip, err)
	}
	for _, e := range s.entries {
		if e.prefix.Contains(addr) {
			return e.score, nil
		}
	}
	return s.defaultScore, nil
}
