package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"riseup/internal/domain"
	"riseup/internal/redis"
	"riseup/internal/repository"
	"riseup/internal/service"
)

// ──────────────────────────────────────────────
// MOCK DONATION REPOSITORY
// ──────────────────────────────────────────────

// MockDonationRepository is a mock implementation of DonationRepository.
type MockDonationRepository struct {
	mu        sync.RWMutex
	donations map[string]*domain.Donation

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32
	GetCallCount    int32
	TotalsCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	GetError    error
}

// NewMockDonationRepository creates a new mock donation repository.
func NewMockDonationRepository() *MockDonationRepository {
	return &MockDonationRepository{
		donations: make(map[string]*domain.Donation),
	}
}

// AddDonation seeds a donation into the mock repository.
func (m *MockDonationRepository) AddDonation(donation *domain.Donation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *donation
	m.donations[donation.ID] = &copied
}

// RemoveDonation deletes a donation, simulating a disappearing row.
func (m *MockDonationRepository) RemoveDonation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.donations, id)
}

// Stored returns the stored state of a donation.
func (m *MockDonationRepository) Stored(id string) *domain.Donation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if donation, ok := m.donations[id]; ok {
		copied := *donation
		return &copied
	}
	return nil
}

func (m *MockDonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *donation
	m.donations[donation.ID] = &copied
	return nil
}

func (m *MockDonationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	donation, ok := m.donations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *donation
	return &copied, nil
}

func (m *MockDonationRepository) GetByExternalReference(ctx context.Context, ref string) (*domain.Donation, error) {
	return m.findLatest(func(d *domain.Donation) bool { return d.ExternalReference == ref })
}

func (m *MockDonationRepository) GetByGatewayEventID(ctx context.Context, eventID string) (*domain.Donation, error) {
	return m.findLatest(func(d *domain.Donation) bool { return d.GatewayEventID == eventID })
}

// findLatest mirrors the postgres most-recent tie-break on shared references.
func (m *MockDonationRepository) findLatest(match func(*domain.Donation) bool) (*domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Donation
	for _, donation := range m.donations {
		if !match(donation) {
			continue
		}
		if latest == nil || donation.CreatedAt.After(latest.CreatedAt) {
			latest = donation
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *MockDonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.donations[donation.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Provider = donation.Provider
	stored.Status = donation.Status
	stored.ExternalReference = donation.ExternalReference
	stored.GatewayEventID = donation.GatewayEventID
	stored.CompletedAt = donation.CompletedAt
	stored.FailedReason = donation.FailedReason
	return nil
}

func (m *MockDonationRepository) List(ctx context.Context, limit int) ([]*domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var donations []*domain.Donation
	for _, donation := range m.donations {
		copied := *donation
		donations = append(donations, &copied)
	}
	sort.Slice(donations, func(i, j int) bool {
		return donations[i].CreatedAt.After(donations[j].CreatedAt)
	})
	if len(donations) > limit {
		donations = donations[:limit]
	}
	return donations, nil
}

func (m *MockDonationRepository) Totals(ctx context.Context) (*repository.DonationTotals, error) {
	atomic.AddInt32(&m.TotalsCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	totals := &repository.DonationTotals{}
	for _, donation := range m.donations {
		if donation.Status == domain.DonationStatusCompleted {
			totals.TotalAmount += donation.Amount
			totals.TotalDonations++
		}
	}
	return totals, nil
}

// ──────────────────────────────────────────────
// MOCK STK PUSHER
// ──────────────────────────────────────────────

// MockStkPusher is a mock implementation of StkPusher.
type MockStkPusher struct {
	mu sync.Mutex

	PushCallCount int32
	LastRequest   service.StkPushRequest

	// Error injection
	PushError error

	Result *service.StkPushResult
}

// NewMockStkPusher creates a mock pusher returning fixed identifiers.
func NewMockStkPusher() *MockStkPusher {
	return &MockStkPusher{
		Result: &service.StkPushResult{
			MerchantRequestID: "merchant-001",
			CheckoutRequestID: "ws_CO_001",
			CustomerMessage:   "Success. Request accepted for processing",
		},
	}
}

func (m *MockStkPusher) Push(ctx context.Context, req service.StkPushRequest) (*service.StkPushResult, error) {
	atomic.AddInt32(&m.PushCallCount, 1)
	m.mu.Lock()
	m.LastRequest = req
	m.mu.Unlock()
	if m.PushError != nil {
		return nil, m.PushError
	}
	return m.Result, nil
}

// ──────────────────────────────────────────────
// MOCK STATS CACHE
// ──────────────────────────────────────────────

// MockStatsCache is a mock implementation of StatsCacheInterface.
type MockStatsCache struct {
	mu     sync.Mutex
	totals *redis.CachedTotals

	GetCallCount int32
	SetCallCount int32

	GetError error
}

// NewMockStatsCache creates an empty mock stats cache.
func NewMockStatsCache() *MockStatsCache {
	return &MockStatsCache{}
}

func (m *MockStatsCache) GetTotals(ctx context.Context) (*redis.CachedTotals, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals, nil
}

func (m *MockStatsCache) SetTotals(ctx context.Context, totals *redis.CachedTotals) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals = totals
	return nil
}

func (m *MockStatsCache) InvalidateTotals(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals = nil
	return nil
}
