package client

import (
	"context"

	"github.com/darmiel/vigil/internal/api"
	"github.com/darmiel/vigil/internal/core"
	"github.com/darmiel/vigil/internal/service"
)

// Register enrolls or refreshes a network identity.
func (c *Client) Register(ctx context.Context, req service.RegisterRequest) (*core.NetworkIdentity, string, error) {
	var ident core.NetworkIdentity
	correlation, err := c.post(ctx, c.url().
		setPath(api.RegisterIdentityRoute).
		build(), req, &ident)
	if err != nil {
		return nil, correlation, err
	}
	return &ident, correlation, nil
}

func (c *Client) ListIdentities(ctx context.Context) ([]core.NetworkIdentity, string, error) {
	var identities []core.NetworkIdentity
	correlation, err := c.get(ctx, c.url().
		setPath(api.ListIdentitiesRoute).
		build(), &identities)
	return identities, correlation, err
}

func (c *Client) GetIdentity(ctx context.Context, entityID string) (*core.NetworkIdentity, string, error) {
	var ident core.NetworkIdentity
	correlation, err := c.get(ctx, c.url().
		setPath(api.IdentityRoute).
		setPathParam("id", entityID).
		build(), &ident)
	if err != nil {
		return nil, correlation, err
	}
	return &ident, correlation, nil
}

func (c *Client) RemoveIdentity(ctx context.Context, entityID string) (string, error) {
	return c.delete(ctx, c.url().
		setPath(api.IdentityRoute).
		setPathParam("id", entityID).
		build())
}

// ChangeTrust elevates or demotes an identity. A reason is required when
// lowering the level.
func (c *Client) ChangeTrust(ctx context.Context, entityID string, req service.TrustChangeRequest) (*core.NetworkIdentity, string, error) {
	var ident core.NetworkIdentity
	correlation, err := c.put(ctx, c.url().
		setPath(api.IdentityTrustRoute).
		setPathParam("id", entityID).
		build(), req, &ident)
	if err != nil {
		return nil, correlation, err
	}
	return &ident, correlation, nil
}

// UpdateRisk overwrites an identity's risk score.
func (c *Client) UpdateRisk(ctx context.Context, entityID string, score float64) (*core.NetworkIdentity, string, error) {
	var ident core.NetworkIdentity
	correlation, err := c.put(ctx, c.url().
		setPath(api.IdentityRiskRoute).
		setPathParam("id", entityID).
		build(), service.RiskUpdateRequest{RiskScore: score}, &ident)
	if err != nil {
		return nil, correlation, err
	}
	return &ident, correlation, nil
}
