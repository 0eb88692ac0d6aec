package cmd

import (
	"context"
	"fmt"

	"github.com/darmiel/vigil/internal/access"
	"github.com/darmiel/vigil/internal/audit"
	"github.com/darmiel/vigil/internal/config"
	"github.com/darmiel/vigil/internal/core"
	"github.com/darmiel/vigil/internal/identity"
	"github.com/darmiel/vigil/internal/incident"
	"github.com/darmiel/vigil/internal/policy"
	"github.com/darmiel/vigil/internal/reputation"
	"github.com/darmiel/vigil/internal/service"
	"github.com/darmiel/vigil/internal/session"
	"github.com/darmiel/vigil/internal/store"
	"github.com/darmiel/vigil/internal/zone"
)

// stack bundles the assembled components so serve can wire background tasks
// against the same instances the HTTP layer uses.
type stack struct {
	service    *service.AccessService
	controller *access.Controller
	identities *identity.Registry
	policies   *policy.Store
	sessions   *session.Manager
}

func buildAuditor(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return audit.NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case "file":
		return audit.NewFileAuditor(cfg.Path)
	case "", "memory":
		return audit.NewInMemoryAuditor(cfg.Capacity), nil
	default:
		return nil, fmt.Errorf("unknown auditor type '%s'", cfg.Type)
	}
}

func buildSnapshotStore(ctx context.Context, cfg config.StoreConfig) (core.SnapshotStore, error) {
	switch cfg.Type {
	case "":
		return nil, nil // no persistence
	case "memory":
		return store.NewInMemorySnapshotStore(), nil
	case "redis":
		return store.NewRedisSnapshotStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store type '%s'", cfg.Type)
	}
}

// buildStack assembles the full decision pipeline from the configuration.
// A nil snapshot store disables persistence.
func buildStack(cfg *config.Config, auditor core.Auditor, snapshots core.SnapshotStore) (*stack, error) {
	resolver, err := zone.NewResolver(cfg.Zones.Mappings, cfg.Zones.Default)
	if err != nil {
		return nil, fmt.Errorf("building zone resolver: %w", err)
	}

	repSource, err := reputation.Build(cfg.Reputation)
	if err != nil {
		return nil, fmt.Errorf("building reputation source: %w", err)
	}

	evaluator := identity.NewEvaluator(cfg.EvaluatorConfig(), repSource)
	identities := identity.NewRegistry(evaluator, snapshots)

	var policies []core.NetworkPolicy
	if cfg.SeedDefaults() {
		policies = policy.Defaults()
	}
	policies = append(policies, cfg.Policies...)

	policyStore := policy.NewStore(policies, snapshots)
	matcher := policy.NewMatcher(policyStore)
	sessions := session.NewManager(snapshots)

	sink, err := incident.Build(cfg.Incidents.Sink)
	if err != nil {
		return nil, fmt.Errorf("building incident sink: %w", err)
	}

	controller := access.NewController(
		identities,
		resolver,
		matcher,
		sessions,
		auditor,
		sink,
		cfg.RiskThreshold(),
	)

	return &stack{
		service:    service.NewAccessService(controller, identities, policyStore, sessions, auditor),
		controller: controller,
		identities: identities,
		policies:   policyStore,
		sessions:   sessions,
	}, nil
}
