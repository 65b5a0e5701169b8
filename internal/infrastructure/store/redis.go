package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/dealradar/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists the seen set as a JSON blob under a single Redis key.
// The blob is overwritten in full on every save, matching the file backend's
// commit semantics.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis using a connection URL.
func NewRedisStore(connURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(connURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	log.Printf("[STORE] Connecting to Redis seen store (key %q)", key)
	return &RedisStore{
		client: redis.NewClient(opts),
		key:    key,
	}, nil
}

// Load reads the blob. A missing key is an empty set.
func (s *RedisStore) Load(ctx context.Context) (*domain.SeenSet, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewSeenSet(), nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: corrupt seen blob: %v", domain.ErrStoreUnavailable, err)
	}
	return domain.NewSeenSet(ids...), nil
}

// Save overwrites the blob in full. No TTL: seen ids are kept forever.
func (s *RedisStore) Save(ctx context.Context, seen *domain.SeenSet) error {
	data, err := json.Marshal(seen.IDs())
	if err != nil {
		return fmt.Errorf("failed to encode seen set: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
