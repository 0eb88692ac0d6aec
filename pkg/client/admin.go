package client

import (
	"context"

	"github.com/darmiel/vigil/internal/api"
	"github.com/darmiel/vigil/internal/core"
)

func (c *Client) ListPolicies(ctx context.Context) ([]core.NetworkPolicy, string, error) {
	var policies []core.NetworkPolicy
	correlation, err := c.get(ctx, c.url().
		setPath(api.ListPoliciesRoute).
		build(), &policies)
	return policies, correlation, err
}

func (c *Client) AddPolicy(ctx context.Context, policy core.NetworkPolicy) (*core.NetworkPolicy, string, error) {
	var created core.NetworkPolicy
	correlation, err := c.post(ctx, c.url().
		setPath(api.ListPoliciesRoute).
		build(), policy, &created)
	if err != nil {
		return nil, correlation, err
	}
	return &created, correlation, nil
}

func (c *Client) RemovePolicy(ctx context.Context, policyID string) (string, error) {
	return c.delete(ctx, c.url().
		setPath(api.PolicyRoute).
		setPathParam("id", policyID).
		build())
}

func (c *Client) ListActiveSessions(ctx context.Context) ([]core.AccessSession, string, error) {
	var sessions []core.AccessSession
	correlation, err := c.get(ctx, c.url().
		setPath(api.ListSessionsRoute).
		build(), &sessions)
	return sessions, correlation, err
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*api.SessionResponse, string, error) {
	var resp api.SessionResponse
	correlation, err := c.get(ctx, c.url().
		setPath(api.SessionRoute).
		setPathParam("id", sessionID).
		build(), &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}

type ListAuditsOpts struct {
	Limit uint

	EntityID   string
	DeniedOnly bool
}

// ListAudits retrieves the latest audit entries from the server, limited to the specified number.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		ub = ub.addQueryParam("limit", opts.Limit)
	}
	if opts.EntityID != "" {
		ub = ub.addQueryParam("entity_id", opts.EntityID)
	}
	if opts.DeniedOnly {
		ub = ub.addQueryParam("denied", "true")
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}
