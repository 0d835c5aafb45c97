package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"commutesurvey/internal/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache keeps the latest snapshot of each survey session in Redis
type SessionCache interface {
	Set(ctx context.Context, snap *model.SessionSnapshot) error
	Get(ctx context.Context, id string) (*model.SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("survey:session:%s", id)
}

func (c *sessionCache) Set(ctx context.Context, snap *model.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(snap.ID), data, c.ttl).Err()
}

// Get returns nil, nil when the session is not cached
func (c *sessionCache) Get(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
