package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"commutesurvey/internal/model"

	"github.com/redis/go-redis/v9"
)

// InfoCache handles Redis operations for campaign descriptions
type InfoCache interface {
	Get(ctx context.Context, tokenOrSlug string) (*model.CampaignInfo, error)
	Set(ctx context.Context, tokenOrSlug string, info *model.CampaignInfo) error
	Delete(ctx context.Context, tokenOrSlug string) error
}

type infoCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewInfoCache creates a new campaign info cache
func NewInfoCache(client *redis.Client, ttl time.Duration) InfoCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &infoCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *infoCache) key(tokenOrSlug string) string {
	return fmt.Sprintf("survey:info:%s", tokenOrSlug)
}

func (c *infoCache) Get(ctx context.Context, tokenOrSlug string) (*model.CampaignInfo, error) {
	data, err := c.client.Get(ctx, c.key(tokenOrSlug)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var info model.CampaignInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *infoCache) Set(ctx context.Context, tokenOrSlug string, info *model.CampaignInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(tokenOrSlug), data, c.ttl).Err()
}

func (c *infoCache) Delete(ctx context.Context, tokenOrSlug string) error {
	return c.client.Del(ctx, c.key(tokenOrSlug)).Err()
}
