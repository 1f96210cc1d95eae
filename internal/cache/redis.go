package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/railsewa/railway-reservation-backend/internal/config"
	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// TrainSearchResult is the cached payload for one train search query
type TrainSearchResult struct {
	Trains []models.Train `json:"trains"`
	Total  int            `json:"total"`
}

// RedisCache caches train search results. The catalog is read-mostly, so a
// short TTL is safe; booking and availability state is never cached here.
type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

// NewRedisCache creates a new RedisCache
func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		searchTTL: searchTTL,
	}
}

// GetTrainSearch returns the cached result for the key, or nil on a miss
func (c *RedisCache) GetTrainSearch(ctx context.Context, key string) (*TrainSearchResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var result TrainSearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetTrainSearch stores a search result under the key with the search TTL
func (c *RedisCache) SetTrainSearch(ctx context.Context, key string, result *TrainSearchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.searchTTL).Err()
}

// Close closes the underlying redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// SearchKey builds the cache key for a train search query
func SearchKey(q models.TrainSearchQuery) string {
	return fmt.Sprintf("search:trains:%s:%s:%s:%s:%d:%d",
		q.SourceStationID, q.DestinationStationID,
		q.Date.Format("2006-01-02"), q.ClassType, q.Page, q.Limit)
}
