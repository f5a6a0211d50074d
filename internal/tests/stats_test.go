package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"riseup/internal/domain"
	"riseup/internal/service"
)

func TestStats_CacheMissFallsThroughAndPopulates(t *testing.T) {
	ctx := context.Background()
	repo := NewMockDonationRepository()
	cache := NewMockStatsCache()

	completed := pendingDonation("don-1", "ref-1")
	now := time.Now().UTC()
	completed.Status = domain.DonationStatusCompleted
	completed.CompletedAt = &now
	repo.AddDonation(completed)
	repo.AddDonation(pendingDonation("don-2", "ref-2"))

	svc := service.NewStatsService(repo, cache)

	totals, err := svc.Totals(ctx)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if totals.TotalDonations != 1 {
		t.Errorf("expected 1 completed donation, got %d", totals.TotalDonations)
	}
	if totals.TotalAmount != 100 {
		t.Errorf("expected total 100, got %v", totals.TotalAmount)
	}
	if cache.SetCallCount != 1 {
		t.Errorf("expected cache population, got %d set calls", cache.SetCallCount)
	}
}

func TestStats_CacheHitSkipsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMockDonationRepository()
	cache := NewMockStatsCache()
	svc := service.NewStatsService(repo, cache)

	if _, err := svc.Totals(ctx); err != nil {
		t.Fatalf("warm-up failed: %v", err)
	}

	totalsCalls := repo.TotalsCallCount
	if _, err := svc.Totals(ctx); err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if repo.TotalsCallCount != totalsCalls {
		t.Error("cached read must not hit the repository")
	}
	if cache.GetCallCount != 2 {
		t.Errorf("expected 2 cache reads, got %d", cache.GetCallCount)
	}
}

func TestStats_CacheErrorFallsThrough(t *testing.T) {
	ctx := context.Background()
	repo := NewMockDonationRepository()
	cache := NewMockStatsCache()
	cache.GetError = errors.New("redis down")
	svc := service.NewStatsService(repo, cache)

	totals, err := svc.Totals(ctx)
	if err != nil {
		t.Fatalf("cache errors must fall through, got %v", err)
	}
	if totals.TotalDonations != 0 {
		t.Errorf("expected zero totals, got %d", totals.TotalDonations)
	}
}
