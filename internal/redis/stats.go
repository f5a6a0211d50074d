package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsCache caches donation aggregates in Redis.
type StatsCache struct {
	client *redis.Client
}

// NewStatsCache creates a new StatsCache.
func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

// Totals change on every completed webhook, so keep the TTL short.
const TotalsCacheTTL = 30 * time.Second

const totalsCacheKey = "cache:donations:totals"

// CachedTotals represents cached donation aggregates.
type CachedTotals struct {
	TotalAmount    float64 `json:"total_amount"`
	TotalDonations int     `json:"total_donations"`
}

// GetTotals retrieves donation totals from cache. Returns nil on a miss.
func (s *StatsCache) GetTotals(ctx context.Context) (*CachedTotals, error) {
	data, err := s.client.Get(ctx, totalsCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var totals CachedTotals
	if err := json.Unmarshal(data, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

// SetTotals stores donation totals in cache.
func (s *StatsCache) SetTotals(ctx context.Context, totals *CachedTotals) error {
	data, err := json.Marshal(totals)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, totalsCacheKey, data, TotalsCacheTTL).Err()
}

// InvalidateTotals removes the cached totals.
func (s *StatsCache) InvalidateTotals(ctx context.Context) error {
	return s.client.Del(ctx, totalsCacheKey).Err()
}
