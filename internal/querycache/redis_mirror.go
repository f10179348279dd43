package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/go-redis/redis/v8"
)

// RedisMirror keeps settled entries in Redis as JSON so other instances start warm
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMirror creates a new RedisMirror
func NewRedisMirror(client *redis.Client, prefix string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, prefix: prefix, ttl: ttl}
}

func (m *RedisMirror) redisKey(key Key) string {
	return m.prefix + key.String()
}

func (m *RedisMirror) Load(ctx context.Context, key Key) (models.PostConnection, bool, error) {
	raw, err := m.client.Get(ctx, m.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.PostConnection{}, false, nil
	}
	if err != nil {
		return models.PostConnection{}, false, err
	}
	var data models.PostConnection
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.PostConnection{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return data, true, nil
}

func (m *RedisMirror) Store(ctx context.Context, key Key, data models.PostConnection) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return m.client.Set(ctx, m.redisKey(key), raw, m.ttl).Err()
}

func (m *RedisMirror) Delete(ctx context.Context, key Key) error {
	return m.client.Del(ctx, m.redisKey(key)).Err()
}
