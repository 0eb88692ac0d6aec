package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/access"
	"github.com/darmiel/vigil/internal/core"
	"github.com/darmiel/vigil/internal/identity"
	"github.com/darmiel/vigil/internal/policy"
	"github.com/darmiel/vigil/internal/session"
	"github.com/darmiel/vigil/internal/validation"
)

// AccessService fronts the decision pipeline and the admin operations for the
// HTTP layer. It validates input and maps domain errors to status codes; the
// actual semantics live in the packages underneath.
type AccessService struct {
	controller *access.Controller
	identities *identity.Registry
	policies   *policy.Store
	sessions   *session.Manager
	auditor    core.Auditor
}

func NewAccessService(
	controller *access.Controller,
	identities *identity.Registry,
	policies *policy.Store,
	sessions *session.Manager,
	auditor core.Auditor,
) *AccessService {
	return &AccessService{
		controller: controller,
		identities: identities,
		policies:   policies,
		sessions:   sessions,
		auditor:    auditor,
	}
}

func validateVerifyRequest(req VerifyRequest) error {
	if req.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}
	if req.DestinationIP == "" {
		return fmt.Errorf("destination_ip is required")
	}
	if req.DestinationPort < 1 || req.DestinationPort > 65535 {
		return fmt.Errorf("destination_port %d is invalid", req.DestinationPort)
	}
	if core.NormalizeProtocol(req.Protocol) == "" {
		return fmt.Errorf("protocol is required")
	}
	return nil
}

// Verify runs the access decision. Denials are results, not errors: only
// malformed input produces an error here.
func (s *AccessService) Verify(ctx context.Context, req VerifyRequest) (*access.Decision, error) {
	if err := validateVerifyRequest(req); err != nil {
		return nil, httpError(http.StatusBadRequest, err)
	}

	decision := s.controller.Verify(ctx, access.Request{
		EntityID:        req.EntityID,
		DestinationIP:   req.DestinationIP,
		DestinationPort: req.DestinationPort,
		Protocol:        req.Protocol,
	})
	return &decision, nil
}

// Explain dry-runs the decision and returns the step-by-step trace.
func (s *AccessService) Explain(ctx context.Context, req VerifyRequest) (*access.DecisionTrace, error) {
	if err := validateVerifyRequest(req); err != nil {
		return nil, httpError(http.StatusBadRequest, err)
	}

	trace := s.controller.Explain(ctx, access.Request{
		EntityID:        req.EntityID,
		DestinationIP:   req.DestinationIP,
		DestinationPort: req.DestinationPort,
		Protocol:        req.Protocol,
	})
	return &trace, nil
}

// RegisterIdentity enrolls or refreshes an identity.
func (s *AccessService) RegisterIdentity(ctx context.Context, req RegisterRequest) (*core.NetworkIdentity, error) {
	if req.EntityID == "" {
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("entity_id is required"))
	}
	if req.IPAddress == "" {
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("ip_address is required"))
	}
	zone, err := core.ParseZone(req.Zone)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, err)
	}

	ident, err := s.identities.Register(ctx, req.EntityID, req.IPAddress, req.MACAddress, req.DeviceFingerprint, zone)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, err)
	}
	return &ident, nil
}

func (s *AccessService) GetIdentity(entityID string) (*core.NetworkIdentity, error) {
	ident, err := s.identities.Get(entityID)
	if err != nil {
		return nil, mapIdentityError(err)
	}
	return &ident, nil
}

func (s *AccessService) ListIdentities() []core.NetworkIdentity {
	return s.identities.List()
}

func (s *AccessService) RemoveIdentity(entityID string) error {
	if err := s.identities.Remove(entityID); err != nil {
		return mapIdentityError(err)
	}
	return nil
}

// ChangeTrust elevates or demotes an identity depending on the requested
// level. Demotions require a reason.
func (s *AccessService) ChangeTrust(entityID string, req TrustChangeRequest) (*core.NetworkIdentity, error) {
	level, err := core.ParseTrustLevel(req.Level)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, err)
	}

	current, err := s.identities.Get(entityID)
	if err != nil {
		return nil, mapIdentityError(err)
	}

	var ident core.NetworkIdentity
	if level >= current.TrustLevel {
		ident, err = s.identities.Elevate(entityID, level)
	} else {
		ident, err = s.identities.Demote(entityID, level, req.Reason)
	}
	if err != nil {
		return nil, mapIdentityError(err)
	}
	return &ident, nil
}

func (s *AccessService) UpdateRiskScore(entityID string, req RiskUpdateRequest) (*core.NetworkIdentity, error) {
	ident, err := s.identities.UpdateRiskScore(entityID, req.RiskScore)
	if err != nil {
		return nil, mapIdentityError(err)
	}
	return &ident, nil
}

// AddPolicy validates and installs a new policy. The new policy is matched
// after all existing ones.
func (s *AccessService) AddPolicy(p core.NetworkPolicy) (*core.NetworkPolicy, error) {
	if err := validation.ValidatePolicy(&p); err != nil {
		return nil, httpError(http.StatusBadRequest, err)
	}
	if p.PolicyID == "" {
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("policy_id is required"))
	}

	if err := s.policies.Add(p); err != nil {
		var conflict core.PolicyConflictError
		if errors.As(err, &conflict) {
			return nil, httpError(http.StatusConflict, err)
		}
		return nil, httpError(http.StatusInternalServerError, err)
	}

	log.Info().Str("policy_id", p.PolicyID).Msg("policy added")
	return &p, nil
}

func (s *AccessService) RemovePolicy(policyID string) error {
	if err := s.policies.Remove(policyID); err != nil {
		var unknown core.UnknownPolicyError
		if errors.As(err, &unknown) {
			return httpError(http.StatusNotFound, err)
		}
		return httpError(http.StatusInternalServerError, err)
	}
	log.Info().Str("policy_id", policyID).Msg("policy removed")
	return nil
}

func (s *AccessService) ListPolicies() []core.NetworkPolicy {
	return s.policies.List()
}

func (s *AccessService) ListActiveSessions() []core.AccessSession {
	return s.sessions.ListActive()
}

func (s *AccessService) GetSession(sessionID string) (*core.AccessSession, bool, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, false, httpError(http.StatusNotFound, fmt.Errorf("session '%s' not found", sessionID))
	}
	return &sess, sess.Active(time.Now()), nil
}

// RecentAudits returns the newest audit entries. Only readable auditors (the
// in-memory one) support this; file and noop auditors return 501.
func (s *AccessService) RecentAudits(limit int) ([]core.AuditEntry, error) {
	reader, ok := s.auditor.(core.AuditReader)
	if !ok {
		return nil, httpError(http.StatusNotImplemented,
			fmt.Errorf("the configured auditor does not support queries"))
	}
	if limit <= 0 {
		limit = 50
	}
	entries, err := reader.GetRecent(limit)
	if err != nil {
		return nil, httpError(http.StatusInternalServerError, err)
	}
	return entries, nil
}

func mapIdentityError(err error) error {
	var unknown core.UnknownEntityError
	if errors.As(err, &unknown) {
		return httpError(http.StatusNotFound, err)
	}
	return httpError(http.StatusBadRequest, err)
}
