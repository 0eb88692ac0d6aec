package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darmiel/vigil/internal/core"
)

var _ core.SnapshotStore = (*RedisSnapshotStore)(nil)

// key layout:
//
//	vigil:identity:<entity_id>  hash, one field per attribute
//	vigil:policy:<policy_id>    versioned JSON document
//	vigil:session:<session_id>  versioned JSON document, TTL = session lifetime
const keyPrefix = "vigil:"

// RedisSnapshotStore persists snapshots to redis. Identities and policies live
// until overwritten or deleted; sessions expire with the TTL of the granting
// policy so redis cleans them up on its own.
type RedisSnapshotStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRedisSnapshotStore connects to redis and verifies the connection with a
// ping so misconfiguration fails at startup, not on the first write.
func NewRedisSnapshotStore(ctx context.Context, cfg RedisConfig) (*RedisSnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at '%s': %w", cfg.Addr, err)
	}
	return &RedisSnapshotStore{client: client}, nil
}

func identityKey(entityID string) string { return keyPrefix + "identity:" + entityID }
func policyKey(policyID string) string   { return keyPrefix + "policy:" + policyID }
func sessionKey(sessionID string) string { return keyPrefix + "session:" + sessionID }

func (s *RedisSnapshotStore) SaveIdentity(ctx context.Context, identity core.NetworkIdentity) error {
	fields := core.EncodeIdentity(identity)
	if err := s.client.HSet(ctx, identityKey(identity.EntityID), fields).Err(); err != nil {
		return fmt.Errorf("saving identity '%s': %w", identity.EntityID, err)
	}
	return nil
}

// GetIdentity loads a persisted identity, e.g. for warm starts.
func (s *RedisSnapshotStore) GetIdentity(ctx context.Context, entityID string) (core.NetworkIdentity, error) {
	fields, err := s.client.HGetAll(ctx, identityKey(entityID)).Result()
	if err != nil {
		return core.NetworkIdentity{}, fmt.Errorf("loading identity '%s': %w", entityID, err)
	}
	if len(fields) == 0 {
		return core.NetworkIdentity{}, core.UnknownEntityError{EntityID: entityID}
	}
	return core.DecodeIdentity(fields)
}

func (s *RedisSnapshotStore) SavePolicy(ctx context.Context, policy core.NetworkPolicy) error {
	doc, err := core.EncodePolicy(policy)
	if err != nil {
		return fmt.Errorf("encoding policy '%s': %w", policy.PolicyID, err)
	}
	if err := s.client.Set(ctx, policyKey(policy.PolicyID), doc, 0).Err(); err != nil {
		return fmt.Errorf("saving policy '%s': %w", policy.PolicyID, err)
	}
	return nil
}

func (s *RedisSnapshotStore) DeletePolicy(ctx context.Context, policyID string) error {
	if err := s.client.Del(ctx, policyKey(policyID)).Err(); err != nil {
		return fmt.Errorf("deleting policy '%s': %w", policyID, err)
	}
	return nil
}

func (s *RedisSnapshotStore) SaveSession(ctx context.Context, session core.AccessSession, ttl time.Duration) error {
	doc, err := core.EncodeSession(session)
	if err != nil {
		return fmt.Errorf("encoding session '%s': %w", session.SessionID, err)
	}
	if err := s.client.Set(ctx, sessionKey(session.SessionID), doc, ttl).Err(); err != nil {
		return fmt.Errorf("saving session '%s': %w", session.SessionID, err)
	}
	return nil
}

func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}
