package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/squadplan/internal/model"
)

func planKey(fingerprint string) string { return "plan:" + fingerprint }

// GetPlan returns the cached plan for a request fingerprint, or nil on a miss.
func (c *Client) GetPlan(ctx context.Context, fingerprint string) (*model.Plan, error) {
	data, err := c.rdb.Get(ctx, planKey(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	var p model.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cached plan: %w", err)
	}
	return &p, nil
}

// SetPlan caches a plan under its fingerprint. A zero ttl keeps it until evicted.
func (c *Client) SetPlan(ctx context.Context, plan *model.Plan, ttl time.Duration) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return c.rdb.Set(ctx, planKey(plan.Fingerprint), data, ttl).Err()
}

// Invalidate removes a cached plan.
func (c *Client) Invalidate(ctx context.Context, fingerprint string) error {
	return c.rdb.Del(ctx, planKey(fingerprint)).Err()
}
