package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldBody    = "body"
	fieldUpdated = "updated"
)

// RedisStore implements Store with one Redis hash per key
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix namespaces every key of this store
	Prefix string
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewRedisStoreWithClient(client, cfg.Prefix), nil
}

// NewRedisStoreWithClient creates a store over an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Read implements Reader interface
func (r *RedisStore) Read(ctx context.Context, key string) (*Entry, bool, error) {
	fields, err := r.client.HGetAll(ctx, r.prefix+key).Result()
	if err != nil {
		return nil, false, err
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	nanos, err := strconv.ParseInt(fields[fieldUpdated], 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s updated: %w", key, err)
	}

	return &Entry{
		Body:    json.RawMessage(fields[fieldBody]),
		Updated: time.Unix(0, nanos),
	}, true, nil
}

// Write implements Writer interface
func (r *RedisStore) Write(ctx context.Context, key string, entry *Entry) error {
	if entry.Updated.IsZero() {
		entry.Updated = time.Now()
	}
	return r.client.HSet(ctx, r.prefix+key,
		fieldBody, string(entry.Body),
		fieldUpdated, strconv.FormatInt(entry.Updated.UnixNano(), 10),
	).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
