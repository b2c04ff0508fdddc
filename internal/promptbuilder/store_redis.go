package promptbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix        = "promptbuilder:form:"
	redisMaxUpdateRetries = 5
)

// RedisStore keeps FormState as JSON under a per-session key whose TTL is
// refreshed on every write. Updates use WATCH/MULTI.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (FormState, error) {
	return readState(ctx, s.client, redisKey(id))
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readState(ctx context.Context, c stringGetter, key string) (FormState, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return FormState{}, nil
	}
	if err != nil {
		return FormState{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	var state FormState
	if err := json.Unmarshal(data, &state); err != nil {
		return FormState{}, fmt.Errorf("decode form state %s: %w", key, err)
	}
	return state, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*FormState) error) (FormState, error) {
	key := redisKey(id)

	for attempt := 0; attempt < redisMaxUpdateRetries; attempt++ {
		var result FormState
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			state, err := readState(ctx, tx, key)
			if err != nil {
				return err
			}
			if err := fn(&state); err != nil {
				return err
			}
			state.UpdatedAt = s.now()

			data, err := json.Marshal(state)
			if err != nil {
				return fmt.Errorf("encode form state: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			result = state
			return nil
		}, key)

		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return FormState{}, err
	}

	return FormState{}, ErrConflict
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close leaves the client open; its owner closes it.
func (s *RedisStore) Close() error {
	return nil
}
