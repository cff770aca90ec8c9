package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

// RedisKeyValueStore keeps values as plain Redis strings. Every key is
// prefixed with the namespace so ListKeys only sees keys written here.
type RedisKeyValueStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisKeyValueStore(client *redis.Client, namespace string) *RedisKeyValueStore {
	return &RedisKeyValueStore{client: client, namespace: namespace}
}

func (r *RedisKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.fullKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores the value without expiry. Story views outlive the items they
// refer to, so nothing here relies on Redis TTLs.
func (r *RedisKeyValueStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.fullKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (r *RedisKeyValueStore) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// ListKeys walks the namespace with SCAN instead of KEYS so a large
// keyspace does not block the server.
func (r *RedisKeyValueStore) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.namespace+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, nil
}

func (r *RedisKeyValueStore) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = r.fullKey(key)
	}

	if err := r.client.Del(ctx, fullKeys...).Err(); err != nil {
		return fmt.Errorf("failed to delete %d keys: %w", len(keys), err)
	}
	return nil
}

func (r *RedisKeyValueStore) fullKey(key string) string {
	return r.namespace + key
}
