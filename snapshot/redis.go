package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/krisalay/fetchcache/types"
)

var _ types.SnapshotStore = (*RedisStore)(nil)

// prefix for every key this store writes, unless overridden
var redisSnapshotPrefix = "snapshot/"

// RedisStore keeps snapshots in Redis under Prefix+key.
type RedisStore struct {
	Client *redis.Client
	Prefix string

	// TTL applied to each snapshot. Zero keeps them forever.
	TTL time.Duration
}

// NewRedisStore connects to redisURL and checks the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("could not configure redis snapshot store: %w", err)
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to redis snapshot store: %w", err)
	}
	return &RedisStore{
		Client: rdb,
		Prefix: redisSnapshotPrefix,
		TTL:    ttl,
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", key, err)
	}
	if err := s.Client.Set(ctx, s.Prefix+key, b, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (any, bool, error) {
	b, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot from redis: %w", err)
	}
	return decode(key, b)
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
