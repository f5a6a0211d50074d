package service

import (
	"context"
	"log"

	"riseup/internal/redis"
	"riseup/internal/repository"
)

// StatsService serves donation aggregates, caching them in Redis.
type StatsService struct {
	repo  repository.DonationRepository
	cache redis.StatsCacheInterface
}

// NewStatsService creates a new StatsService.
func NewStatsService(repo repository.DonationRepository, cache redis.StatsCacheInterface) *StatsService {
	return &StatsService{repo: repo, cache: cache}
}

// Totals returns the completed donation totals, preferring the cache. Cache
// errors fall through to the repository.
func (s *StatsService) Totals(ctx context.Context) (*repository.DonationTotals, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTotals(ctx)
		if err != nil {
			log.Printf("stats cache read failed: %v", err)
		} else if cached != nil {
			return &repository.DonationTotals{
				TotalAmount:    cached.TotalAmount,
				TotalDonations: cached.TotalDonations,
			}, nil
		}
	}

	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTotals(ctx, &redis.CachedTotals{
			TotalAmount:    totals.TotalAmount,
			TotalDonations: totals.TotalDonations,
		}); err != nil {
			log.Printf("stats cache write failed: %v", err)
		}
	}

	return totals, nil
}
