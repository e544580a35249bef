package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Registry struct {
	redis *redis.Client
}

func NewRegistry(r *redis.Client) *Registry {
	return &Registry{redis: r}
}

func (r *Registry) Append(ctx context.Context, stream string, payload any, maxLen int64) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("registry marshal failed: %w", err)
	}

	id, err := r.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"data": data,
		},
		MaxLen: maxLen,
		Approx: true,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("registry xadd failed: %w", err)
	}

	return id, nil
}

// Latest decodes the newest entry of stream into out. It reports false when
// the stream is empty.
func (r *Registry) Latest(ctx context.Context, stream string, out any) (bool, error) {
	msgs, err := r.redis.XRevRangeN(ctx, stream, "+", "-", 1).Result()
	if err != nil {
		return false, fmt.Errorf("registry xrevrange failed: %w", err)
	}
	if len(msgs) == 0 {
		return false, nil
	}

	raw, ok := msgs[0].Values["data"].(string)
	if !ok {
		return false, fmt.Errorf("registry entry %s has no data field", msgs[0].ID)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("registry unmarshal failed: %w", err)
	}
	return true, nil
}
