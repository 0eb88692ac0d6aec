// Package access implements the zero-trust verification pipeline. Every
// request runs the full pipeline; prior grants and existing sessions never
// short-circuit a decision.
package access

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/core"
	"github.com/darmiel/vigil/internal/identity"
	"github.com/darmiel/vigil/internal/policy"
	"github.com/darmiel/vigil/internal/session"
	"github.com/darmiel/vigil/internal/zone"
)

// Controller runs verification requests through the decision pipeline:
// identity lookup, zone resolution, policy match, trust check, time check and
// finally session creation. The first failing step denies and ends the run.
type Controller struct {
	identities *identity.Registry
	zones      *zone.Resolver
	matcher    *policy.Matcher
	sessions   *session.Manager
	auditor    core.Auditor
	incidents  core.IncidentSink

	// riskThreshold is the minimum identity risk score at which a denial
	// additionally emits an incident event.
	riskThreshold float64

	now func() time.Time
}

func NewController(
	identities *identity.Registry,
	zones *zone.Resolver,
	matcher *policy.Matcher,
	sessions *session.Manager,
	auditor core.Auditor,
	incidents core.IncidentSink,
	riskThreshold float64,
) *Controller {
	return &Controller{
		identities:    identities,
		zones:         zones,
		matcher:       matcher,
		sessions:      sessions,
		auditor:       auditor,
		incidents:     incidents,
		riskThreshold: riskThreshold,
		now:           time.Now,
	}
}

// Request is a single access verification request.
type Request struct {
	EntityID        string `json:"entity_id"`
	DestinationIP   string `json:"destination_ip"`
	DestinationPort int    `json:"destination_port"`
	Protocol        string `json:"protocol"`
}

// Decision is the outcome of a verification. A granted decision carries the
// session opened for it; a denied one carries the reason instead. Denials are
// results, not errors.
type Decision struct {
	Granted         bool                `json:"granted"`
	Reason          core.Reason         `json:"reason"`
	SourceZone      core.NetworkZone    `json:"source_zone,omitempty"`
	DestinationZone core.NetworkZone    `json:"destination_zone,omitempty"`
	PolicyID        string              `json:"policy_id,omitempty"`
	Session         *core.AccessSession `json:"session,omitempty"`
}

// Verify runs the request through the full pipeline, records an audit entry
// for the outcome and, for risky denials, notifies the incident sink.
func (c *Controller) Verify(ctx context.Context, req Request) Decision {
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := core.AuditEntry{
		ID:              reqID,
		Time:            c.now(),
		Action:          "access.verify",
		EntityID:        req.EntityID,
		DestinationIP:   req.DestinationIP,
		DestinationPort: req.DestinationPort,
		Protocol:        core.NormalizeProtocol(req.Protocol),
	}
	defer func() {
		if err := c.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for verification")
		}
	}()

	trace, matched, ident := c.evaluate(ctx, req)

	auditEntry.SourceZone = trace.SourceZone
	auditEntry.DestinationZone = trace.DestinationZone
	auditEntry.PolicyID = trace.PolicyID
	auditEntry.Reason = trace.Reason
	auditEntry.RiskScore = ident.RiskScore

	if !trace.Granted {
		auditEntry.Granted = false
		if last := len(trace.Steps) - 1; last >= 0 && !trace.Steps[last].Passed {
			auditEntry.Error = trace.Steps[last].Detail
		}

		logger.Info().
			Str("entity_id", req.EntityID).
			Str("reason", string(trace.Reason)).
			Msg("access denied")

		// incidents fire only for known, risky identities
		if trace.Reason != core.ReasonUnknownEntity && ident.RiskScore >= c.riskThreshold {
			c.notifyIncident(core.IncidentEvent{
				EntityID:        req.EntityID,
				DestinationIP:   req.DestinationIP,
				DestinationPort: req.DestinationPort,
				Reason:          trace.Reason,
				RiskScore:       ident.RiskScore,
				Timestamp:       c.now(),
			})
		}
		return Decision{
			Granted:         false,
			Reason:          trace.Reason,
			SourceZone:      trace.SourceZone,
			DestinationZone: trace.DestinationZone,
			PolicyID:        trace.PolicyID,
		}
	}

	sess := c.sessions.Create(req.EntityID, req.DestinationIP, req.DestinationPort, matched)
	auditEntry.Granted = true
	auditEntry.SessionID = sess.SessionID

	logger.Info().
		Str("entity_id", req.EntityID).
		Str("policy_id", matched.PolicyID).
		Str("session_id", sess.SessionID).
		Msg("access granted")

	return Decision{
		Granted:         true,
		Reason:          core.ReasonGranted,
		SourceZone:      trace.SourceZone,
		DestinationZone: trace.DestinationZone,
		PolicyID:        matched.PolicyID,
		Session:         &sess,
	}
}

// Explain runs the pipeline as a dry-run and returns the full trace. No
// session is created, nothing is audited and no incident fires, so admins can
// probe policies without side effects.
func (c *Controller) Explain(ctx context.Context, req Request) DecisionTrace {
	trace, _, _ := c.evaluate(ctx, req)
	if trace.Granted {
		trace.addStep(StepSessionCreate, true, "skipped (dry-run)")
	}
	return trace
}

// evaluate runs the five decision steps and stops at the first failure. It has
// no side effects besides the sighting counter inside the trust evaluator.
func (c *Controller) evaluate(ctx context.Context, req Request) (DecisionTrace, core.NetworkPolicy, core.NetworkIdentity) {
	reqID, _ := ctx.Value("correlation_id").(string)
	trace := DecisionTrace{
		CorrelationID:   reqID,
		EntityID:        req.EntityID,
		DestinationIP:   req.DestinationIP,
		DestinationPort: req.DestinationPort,
		Protocol:        core.NormalizeProtocol(req.Protocol),
	}

	ident, err := c.identities.Get(req.EntityID)
	if err != nil {
		trace.addStep(StepIdentityLookup, false, err.Error())
		trace.Reason = core.ReasonUnknownEntity
		return trace, core.NetworkPolicy{}, core.NetworkIdentity{}
	}
	trace.addStep(StepIdentityLookup, true, "")

	// the source zone comes from the identity, the destination zone from the
	// address the request targets
	trace.SourceZone = ident.Zone
	trace.DestinationZone = c.zones.Resolve(req.DestinationIP)
	trace.addStep(StepZoneResolution, true,
		fmt.Sprintf("%s -> %s", trace.SourceZone, trace.DestinationZone))

	matched, ok := c.matcher.Match(trace.SourceZone, trace.DestinationZone, req.DestinationPort, req.Protocol)
	if !ok {
		denyErr := core.NoApplicablePolicyError{
			SourceZone:      trace.SourceZone,
			DestinationZone: trace.DestinationZone,
			Port:            req.DestinationPort,
			Protocol:        trace.Protocol,
		}
		trace.addStep(StepPolicyMatch, false, denyErr.Error())
		trace.Reason = denyErr.Reason()
		return trace, core.NetworkPolicy{}, ident
	}
	trace.PolicyID = matched.PolicyID
	trace.addStep(StepPolicyMatch, true, fmt.Sprintf("matched policy '%s'", matched.PolicyID))

	if ident.TrustLevel < matched.MinTrustLevel {
		denyErr := core.InsufficientTrustError{Have: ident.TrustLevel, Need: matched.MinTrustLevel}
		trace.addStep(StepTrustCheck, false, denyErr.Error())
		trace.Reason = denyErr.Reason()
		return trace, matched, ident
	}
	trace.addStep(StepTrustCheck, true,
		fmt.Sprintf("%s >= %s", ident.TrustLevel, matched.MinTrustLevel))

	if matched.TimeRestriction != nil {
		at := c.now()
		if !matched.TimeRestriction.Contains(at) {
			denyErr := core.TimeWindowViolationError{
				Window: *matched.TimeRestriction,
				At:     at.Format("15:04:05"),
			}
			trace.addStep(StepTimeCheck, false, denyErr.Error())
			trace.Reason = denyErr.Reason()
			return trace, matched, ident
		}
	}
	trace.addStep(StepTimeCheck, true, "")

	trace.Granted = true
	trace.Reason = core.ReasonGranted
	return trace, matched, ident
}

// notifyIncident delivers the event without blocking the decision path.
func (c *Controller) notifyIncident(event core.IncidentEvent) {
	if c.incidents == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.incidents.Notify(ctx, event); err != nil {
			log.Warn().Err(err).
				Str("entity_id", event.EntityID).
				Str("sink", c.incidents.Name()).
				Msg("failed to deliver incident event")
		}
	}()
}
