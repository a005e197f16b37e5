package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rahulNinjatech/fever/internal/domain/repository"
)

// RedisRepository implements the EventCache interface using Redis as the backend.
// It is a pure pass-through over string keys and serialized payloads; all
// business logic lives in the query service.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(addr, password string, db int) *RedisRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRepository{client: client}
}

// Ensure RedisRepository implements the EventCache interface
var _ repository.EventCache = (*RedisRepository)(nil)

// Get returns the payload under key, translating redis.Nil into ErrCacheMiss.
func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	payload, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrCacheMiss
		}
		return "", err
	}
	return payload, nil
}

// Set stores payload under key. Expiry is left to the given TTL; nothing in
// the system ever invalidates entries by hand.
func (r *RedisRepository) Set(ctx context.Context, key string, payload string, ttl time.Duration) error {
	return r.client.Set(ctx, key, payload, ttl).Err()
}

// Close releases the underlying client.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
