package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "pickup:session:"

// RedisSessionRepository keeps sessions in Redis with a TTL, so multiple
// service instances can share them.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionRepository creates a Redis-backed session store.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

// FindByID retrieves a session by its unique identifier.
func (r *RedisSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*pickup.ResolutionSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pickup.NewSessionNotFoundError(id.String())
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return record.toDomain(), nil
}

// Save persists a new session.
func (r *RedisSessionRepository) Save(ctx context.Context, session *pickup.ResolutionSession) error {
	data, err := json.Marshal(newSessionRecord(session))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID()), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Update persists changes to an existing session with optimistic locking and
// renews its TTL. The version check runs under WATCH so a concurrent write
// aborts the transaction.
func (r *RedisSessionRepository) Update(ctx context.Context, session *pickup.ResolutionSession) error {
	key := sessionKey(session.ID())

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return pickup.NewSessionNotFoundError(session.ID().String())
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		var stored sessionRecord
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		if stored.Version != session.Version()-1 {
			return ErrVersionConflict
		}

		updated, err := json.Marshal(newSessionRecord(session))
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, r.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

// Delete removes a session.
func (r *RedisSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

var _ pickup.SessionRepository = (*RedisSessionRepository)(nil)
