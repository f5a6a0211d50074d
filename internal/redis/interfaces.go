package redis

import "context"

// StatsCacheInterface defines the interface for donation stats caching.
type StatsCacheInterface interface {
	GetTotals(ctx context.Context) (*CachedTotals, error)
	SetTotals(ctx context.Context, totals *CachedTotals) error
	InvalidateTotals(ctx context.Context) error
}

// Ensure concrete types implement interfaces.
var _ StatsCacheInterface = (*StatsCache)(nil)
