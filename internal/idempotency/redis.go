package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for stored submission outcomes
const recordKeyPrefix = "idem:key:"

// Redis is the Redis-backed store for distributed deployments where
// retries may land on a different instance.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Get(ctx context.Context, key string) (Record, bool, error) {
	raw, err := s.client.Get(ctx, recordKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

func (s *Redis) Put(ctx context.Context, key string, record Record, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	// SETNX keeps the first recorded outcome under concurrent retries.
	return s.client.SetNX(ctx, recordKeyPrefix+key, raw, ttl).Err()
}
