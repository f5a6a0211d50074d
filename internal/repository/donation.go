package repository

import (
	"context"

	"riseup/internal/domain"
)

// DonationTotals aggregates completed donations.
type DonationTotals struct {
	TotalAmount    float64
	TotalDonations int
}

// DonationRepository defines the persistence operations for donations.
type DonationRepository interface {
	// Create persists a new donation.
	Create(ctx context.Context, donation *domain.Donation) error

	// GetByID retrieves a donation by ID.
	GetByID(ctx context.Context, id string) (*domain.Donation, error)

	// GetByExternalReference retrieves the most recently created donation
	// carrying the given external reference.
	GetByExternalReference(ctx context.Context, ref string) (*domain.Donation, error)

	// GetByGatewayEventID retrieves the most recently created donation
	// carrying the given gateway event ID.
	GetByGatewayEventID(ctx context.Context, eventID string) (*domain.Donation, error)

	// Update persists the mutable fields of a donation.
	Update(ctx context.Context, donation *domain.Donation) error

	// List retrieves donations newest first, up to limit.
	List(ctx context.Context, limit int) ([]*domain.Donation, error)

	// Totals aggregates amount and count over completed donations.
	Totals(ctx context.Context) (*DonationTotals, error)
}
