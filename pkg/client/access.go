package client

import (
	"context"

	"github.com/darmiel/vigil/internal/access"
	"github.com/darmiel/vigil/internal/api"
	"github.com/darmiel/vigil/internal/service"
)

// Verify asks the server for an access decision.
func (c *Client) Verify(ctx context.Context, req service.VerifyRequest) (*access.Decision, string, error) {
	var decision access.Decision
	correlation, err := c.post(ctx, c.url().
		setPath(api.VerifyAccessRoute).
		build(), req, &decision)
	if err != nil {
		return nil, correlation, err
	}
	return &decision, correlation, nil
}

// Explain dry-runs an access decision and returns the full pipeline trace.
// Requires admin privileges.
func (c *Client) Explain(ctx context.Context, req service.VerifyRequest) (*access.DecisionTrace, string, error) {
	var trace access.DecisionTrace
	correlation, err := c.post(ctx, c.url().
		setPath(api.ExplainRoute).
		build(), req, &trace)
	if err != nil {
		return nil, correlation, err
	}
	return &trace, correlation, nil
}
