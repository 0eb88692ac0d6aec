package validation

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/darmiel/vigil/internal/core"
)

// ValidatePolicies checks a policy list for structural problems and compiles
// any match expressions. It returns the validated list with compiled
// expressions attached; the input slice is not modified.
func ValidatePolicies(policies []core.NetworkPolicy) ([]core.NetworkPolicy, error) {
	seenIDs := make(map[string]struct{})
	var validPolicies []core.NetworkPolicy

	for i, policy := range policies {
		if policy.PolicyID == "" {
			return nil, fmt.Errorf("policy #%d missing policy_id", i)
		}
		if _, exists := seenIDs[policy.PolicyID]; exists {
			return nil, fmt.Errorf("policy id '%s' is not unique", policy.PolicyID)
		}
		seenIDs[policy.PolicyID] = struct{}{}

		if err := ValidatePolicy(&policy); err != nil {
			return nil, fmt.Errorf("policy '%s': %w", policy.PolicyID, err)
		}

		validPolicies = append(validPolicies, policy)
	}

	return validPolicies, nil
}

// ValidatePolicy validates a single policy in place, compiling its expression
// if one is set. Used for both config-time and admin-API validation.
func ValidatePolicy(policy *core.NetworkPolicy) error {
	if !policy.SourceZone.IsValid() {
		return fmt.Errorf("unknown source zone '%s'", policy.SourceZone)
	}
	if !policy.DestinationZone.IsValid() {
		return fmt.Errorf("unknown destination zone '%s'", policy.DestinationZone)
	}
	if !policy.MinTrustLevel.IsValid() {
		return fmt.Errorf("invalid min trust level %d", int(policy.MinTrustLevel))
	}

	// an empty port list is legal (deny-all), individual ports must be valid
	for _, port := range policy.AllowedPorts {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
	}

	if core.NormalizeProtocol(policy.Protocol) == "" {
		return fmt.Errorf("missing protocol")
	}
	if policy.MaxSessionDuration <= 0 {
		return fmt.Errorf("max_session_duration must be > 0, got %d", policy.MaxSessionDuration)
	}
	if policy.TimeRestriction != nil {
		if err := policy.TimeRestriction.Validate(); err != nil {
			return fmt.Errorf("invalid time restriction: %w", err)
		}
	}

	if policy.Expr != "" {
		out, err := expr.Compile(policy.Expr, expr.AsBool())
		if err != nil {
			return fmt.Errorf("compiling expr: %w", err)
		}
		policy.CompiledExpr = out
	}

	return nil
}
