package core

import "fmt"

// Reason identifies why a decision ended the way it did. Every denial carries
// exactly one reason; granted decisions carry ReasonGranted.
type Reason string

const (
	ReasonGranted             Reason = "granted"
	ReasonUnknownEntity       Reason = "unknown_entity"
	ReasonNoApplicablePolicy  Reason = "no_applicable_policy"
	ReasonInsufficientTrust   Reason = "insufficient_trust"
	ReasonTimeWindowViolation Reason = "time_window_violation"
)

// UnknownEntityError indicates an operation on an entity that was never
// registered. Non-fatal: the decision pipeline converts it into a denial.
type UnknownEntityError struct {
	EntityID string
}

func (e UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity '%s'", e.EntityID)
}

func (e UnknownEntityError) Reason() Reason { return ReasonUnknownEntity }

// NoApplicablePolicyError indicates that no policy in the store matched the
// request tuple. Absence of a policy always denies.
type NoApplicablePolicyError struct {
	SourceZone      NetworkZone
	DestinationZone NetworkZone
	Port            int
	Protocol        string
}

func (e NoApplicablePolicyError) Error() string {
	return fmt.Sprintf("no applicable policy for %s->%s port %d/%s",
		e.SourceZone, e.DestinationZone, e.Port, e.Protocol)
}

func (e NoApplicablePolicyError) Reason() Reason { return ReasonNoApplicablePolicy }

// InsufficientTrustError indicates the source identity's trust level is below
// the matched policy's minimum.
type InsufficientTrustError struct {
	Have TrustLevel
	Need TrustLevel
}

func (e InsufficientTrustError) Error() string {
	return fmt.Sprintf("insufficient trust level: have %s, need %s", e.Have, e.Need)
}

func (e InsufficientTrustError) Reason() Reason { return ReasonInsufficientTrust }

// TimeWindowViolationError indicates the request arrived outside the matched
// policy's allowed wall-clock window.
type TimeWindowViolationError struct {
	Window TimeWindow
	At     string
}

func (e TimeWindowViolationError) Error() string {
	return fmt.Sprintf("outside allowed time window %s-%s (at %s)",
		e.Window.Start, e.Window.End, e.At)
}

func (e TimeWindowViolationError) Reason() Reason { return ReasonTimeWindowViolation }

// PolicyConflictError indicates an attempt to add a policy whose ID already
// exists. Fatal to the mutating admin call only; the store stays untouched.
type PolicyConflictError struct {
	PolicyID string
}

func (e PolicyConflictError) Error() string {
	return fmt.Sprintf("policy '%s' already exists", e.PolicyID)
}

// UnknownPolicyError indicates an admin operation on a policy ID that is not
// in the store.
type UnknownPolicyError struct {
	PolicyID string
}

func (e UnknownPolicyError) Error() string {
	return fmt.Sprintf("policy '%s' not found", e.PolicyID)
}

// DenyReason is implemented by every non-fatal decision-path error. The
// controller uses it to convert errors into (denied, reason) results so that
// no error crosses the core's public boundary.
type DenyReason interface {
	error
	Reason() Reason
}
