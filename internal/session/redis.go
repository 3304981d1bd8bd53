package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flood-dashboard:session:"

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// between replicas. Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client redis.UniversalClient
	clock  clockwork.Clock
}

// NewRedisStore connects to the Redis instance at rawURL (redis://...).
func NewRedisStore(rawURL string, clock clockwork.Clock) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_REDIS_URL: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts), clock: clock}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient, clock clockwork.Clock) *RedisStore {
	return &RedisStore{client: client, clock: clock}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (r *RedisStore) Put(ctx context.Context, s Session) error {
	ttl := s.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, redisKey(s.ID), data, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	s.ID = id
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKey(id)).Err()
}

// CheckReadiness pings Redis.
func (r *RedisStore) CheckReadiness(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
