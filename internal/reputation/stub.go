package reputation

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/vigil/internal/core"
)

var _ core.ReputationSource = (*StubSource)(nil)

type stubOptions struct {
	Score float64 `mapstructure:"score"`
}

// StubSource returns the same score for every address. Intended for tests and
// local development.
type StubSource struct {
	score float64
}

func NewStubSource(options map[string]any) (*StubSource, error) {
	var opts stubOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("decoding stub reputation options: %w", err)
	}
	if opts.Score < 0 || opts.Score > 1 {
		return nil, fmt.Errorf("stub reputation score %v outside [0,1]", opts.Score)
	}
	return &StubSource{score: opts.Score}, nil
}

func (s *StubSource) Name() string {
	return "stub"
}

func (s *StubSource) Score(_ context.Context, _ string) (float64, error) {
	return s.score, nil
}
