package tasks

import (
	"context"
	"time"

	"github.com/darmiel/vigil/internal/identity"
	"github.com/darmiel/vigil/internal/logging"
	"github.com/darmiel/vigil/internal/session"
)

const (
	SessionSweepTaskName  = "session-sweep"
	IdentityFlushTaskName = "identity-flush"
)

// NewSessionSweepTask removes expired sessions from the session manager.
func NewSessionSweepTask(sessions *session.Manager, interval time.Duration) TaskDefinition {
	return TaskDefinition{
		Name:     SessionSweepTaskName,
		Interval: interval,
		Handler: func(_ context.Context, logger logging.InternalLogger) error {
			removed := sessions.SweepExpired()
			logger.Info("removed %d expired sessions", removed)
			return nil
		},
	}
}

// NewIdentityFlushTask re-saves all identities to the snapshot store, so a
// warm standby has a recent view even if individual fire-and-forget writes
// were lost.
func NewIdentityFlushTask(registry *identity.Registry, interval time.Duration) TaskDefinition {
	return TaskDefinition{
		Name:     IdentityFlushTaskName,
		Interval: interval,
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			count, err := registry.FlushAll(ctx)
			if err != nil {
				return err
			}
			logger.Info("flushed %d identities to the snapshot store", count)
			return nil
		},
	}
}
