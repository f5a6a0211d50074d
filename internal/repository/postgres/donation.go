package postgres

import (
	"context"
	"database/sql"
	"errors"

	"riseup/internal/domain"
	"riseup/internal/repository"
)

// DonationRepository is a PostgreSQL implementation of repository.DonationRepository.
type DonationRepository struct {
	q Querier
}

// NewDonationRepository creates a new PostgreSQL donation repository.
func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{q: db}
}

// NewDonationRepositoryWithTx creates a donation repository using a transaction.
func NewDonationRepositoryWithTx(tx *sql.Tx) *DonationRepository {
	return &DonationRepository{q: tx}
}

const donationColumns = `
	id, donor_name, email, phone, amount, currency, payment_method,
	anonymous, message, provider, status, external_reference,
	gateway_event_id, completed_at, failed_reason, created_at
`

// Create persists a new donation.
func (r *DonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	query := `
		INSERT INTO donations (
			id, donor_name, email, phone, amount, currency, payment_method,
			anonymous, message, provider, status, external_reference,
			gateway_event_id, completed_at, failed_reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.q.ExecContext(ctx, query,
		donation.ID,
		donation.DonorName,
		donation.Email,
		donation.Phone,
		donation.Amount,
		donation.Currency,
		donation.PaymentMethod,
		donation.Anonymous,
		donation.Message,
		donation.Provider,
		donation.Status,
		donation.ExternalReference,
		donation.GatewayEventID,
		donation.CompletedAt,
		donation.FailedReason,
		donation.CreatedAt,
	)

	return err
}

// GetByID retrieves a donation by ID.
func (r *DonationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByExternalReference retrieves the most recently created donation with
// the given external reference.
func (r *DonationRepository) GetByExternalReference(ctx context.Context, ref string) (*domain.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations WHERE external_reference = $1
		ORDER BY created_at DESC LIMIT 1
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, ref))
}

// GetByGatewayEventID retrieves the most recently created donation with the
// given gateway event ID.
func (r *DonationRepository) GetByGatewayEventID(ctx context.Context, eventID string) (*domain.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations WHERE gateway_event_id = $1
		ORDER BY created_at DESC LIMIT 1
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, eventID))
}

// Update persists the mutable fields of a donation.
func (r *DonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	query := `
		UPDATE donations SET
			provider = $1,
			status = $2,
			external_reference = $3,
			gateway_event_id = $4,
			completed_at = $5,
			failed_reason = $6
		WHERE id = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		donation.Provider,
		donation.Status,
		donation.ExternalReference,
		donation.GatewayEventID,
		donation.CompletedAt,
		donation.FailedReason,
		donation.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List retrieves donations newest first, up to limit.
func (r *DonationRepository) List(ctx context.Context, limit int) ([]*domain.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations ORDER BY created_at DESC LIMIT $1
	`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []*domain.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, donation)
	}

	return donations, rows.Err()
}

// Totals aggregates amount and count over completed donations.
func (r *DonationRepository) Totals(ctx context.Context) (*repository.DonationTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM donations WHERE status = $1
	`

	var totals repository.DonationTotals
	err := r.q.QueryRowContext(ctx, query, domain.DonationStatusCompleted).Scan(
		&totals.TotalAmount,
		&totals.TotalDonations,
	)
	if err != nil {
		return nil, err
	}

	return &totals, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *DonationRepository) scanOne(row *sql.Row) (*domain.Donation, error) {
	donation, err := scanDonation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return donation, nil
}

func scanDonation(s scanner) (*domain.Donation, error) {
	var donation domain.Donation
	err := s.Scan(
		&donation.ID,
		&donation.DonorName,
		&donation.Email,
		&donation.Phone,
		&donation.Amount,
		&donation.Currency,
		&donation.PaymentMethod,
		&donation.Anonymous,
		&donation.Message,
		&donation.Provider,
		&donation.Status,
		&donation.ExternalReference,
		&donation.GatewayEventID,
		&donation.CompletedAt,
		&donation.FailedReason,
		&donation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &donation, nil
}
