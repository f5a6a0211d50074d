package service

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"riseup/internal/domain"
	"riseup/internal/repository"
)

// maxFailedReasonLen bounds the stored failure reason.
const maxFailedReasonLen = 1000

// StatusSnapshot is the public view of a donation's payment state. It is
// shared by webhook responses, the manual update endpoint and stream events.
type StatusSnapshot struct {
	DonationID        string  `json:"donation_id"`
	PaymentStatus     string  `json:"payment_status"`
	Status            string  `json:"status"`
	Provider          string  `json:"provider"`
	ExternalReference string  `json:"external_reference"`
	GatewayEventID    string  `json:"gateway_event_id"`
	CompletedAt       *string `json:"completed_at"`
	FailedReason      string  `json:"failed_reason"`
}

// Snapshot builds the public status view of a donation.
func Snapshot(donation *domain.Donation) *StatusSnapshot {
	snapshot := &StatusSnapshot{
		DonationID:        donation.ID,
		PaymentStatus:     string(donation.Status),
		Status:            string(donation.Status),
		Provider:          donation.Provider,
		ExternalReference: donation.ExternalReference,
		GatewayEventID:    donation.GatewayEventID,
		FailedReason:      donation.FailedReason,
	}
	if donation.CompletedAt != nil {
		completedAt := donation.CompletedAt.UTC().Format(time.RFC3339)
		snapshot.CompletedAt = &completedAt
	}
	return snapshot
}

// GatewayDiagnostic reports the outcome of the external payment round trip.
// Failures land here as data; the donation submission itself still succeeds.
type GatewayDiagnostic struct {
	Provider        string `json:"provider"`
	Submitted       bool   `json:"submitted"`
	RedirectURL     string `json:"redirect_url,omitempty"`
	CustomerMessage string `json:"customer_message,omitempty"`
	Error           string `json:"error,omitempty"`
}

// InitiateRequest contains the parameters for creating a donation.
type InitiateRequest struct {
	DonorName     string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Amount        float64
	Currency      string
	PaymentMethod string
	Anonymous     bool
	Message       string
	// PaymentToken is how some frontends smuggle the M-Pesa phone number.
	PaymentToken string
}

// InitiateResult is the outcome of a donation initiation.
type InitiateResult struct {
	Donation *domain.Donation
	Gateway  *GatewayDiagnostic
}

// WebhookInput is a provider callback after field-alias resolution.
type WebhookInput struct {
	DonationID        string
	ExternalReference string
	GatewayEventID    string
	Status            string
	Reason            string
}

// ManualUpdateRequest carries an operator-initiated status correction.
type ManualUpdateRequest struct {
	Token             string
	Status            string
	Reason            string
	Provider          string
	ExternalReference string
	GatewayEventID    string
}

// DonationService orchestrates donation creation, payment initiation and
// webhook-driven status transitions.
type DonationService struct {
	repo         repository.DonationRepository
	verifier     *WebhookVerifier
	pusher       StkPusher
	notifier     *NotificationService
	paypalURL    string
	testPhone    string
	updateToken  string
	updateHeader string
}

// NewDonationService creates a new DonationService.
func NewDonationService(
	repo repository.DonationRepository,
	verifier *WebhookVerifier,
	pusher StkPusher,
	notifier *NotificationService,
	paypalURL string,
	testPhone string,
	updateToken string,
	updateHeader string,
) *DonationService {
	return &DonationService{
		repo:         repo,
		verifier:     verifier,
		pusher:       pusher,
		notifier:     notifier,
		paypalURL:    paypalURL,
		testPhone:    testPhone,
		updateToken:  updateToken,
		updateHeader: updateHeader,
	}
}

// Initiate validates the request, creates a pending donation and, for
// mobile money, attempts the external push payment. Exactly one donation
// row is created per call and at most one network call is attempted.
func (s *DonationService) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	currency, ok := domain.NormalizeCurrency(req.Currency)
	if !ok {
		return nil, ErrUnsupportedCurrency
	}

	methodInput := req.PaymentMethod
	if methodInput == "" {
		methodInput = string(domain.PaymentMethodMpesa)
	}
	method, ok := domain.ParsePaymentMethod(methodInput)
	if !ok {
		return nil, ErrInvalidPaymentMethod
	}

	donorName := strings.TrimSpace(req.DonorName)
	if donorName == "" {
		donorName = strings.TrimSpace(req.FirstName + " " + req.LastName)
	}
	if donorName == "" {
		donorName = "Anonymous Donor"
	}

	phone := strings.TrimSpace(req.Phone)
	if method == domain.PaymentMethodMpesa && phone == "" && req.PaymentToken != "" {
		phone = strings.TrimSpace(req.PaymentToken)
	}

	// Validate the phone before touching the database so a rejected request
	// leaves no row behind.
	var msisdn string
	if method == domain.PaymentMethodMpesa {
		if phone == "" {
			phone = s.testPhone
		}
		if phone == "" {
			return nil, ErrMissingPhone
		}
		normalized, err := NormalizePhone(phone)
		if err != nil {
			return nil, err
		}
		msisdn = normalized
	}

	donation := &domain.Donation{
		ID:                uuid.New().String(),
		DonorName:         donorName,
		Email:             strings.TrimSpace(req.Email),
		Phone:             msisdn,
		Amount:            req.Amount,
		Currency:          currency,
		PaymentMethod:     method,
		Anonymous:         req.Anonymous,
		Message:           strings.TrimSpace(req.Message),
		Status:            domain.DonationStatusPending,
		ExternalReference: newReference(),
		CreatedAt:         time.Now().UTC(),
	}
	if msisdn == "" {
		donation.Phone = phone
	}

	if err := s.repo.Create(ctx, donation); err != nil {
		return nil, err
	}

	result := &InitiateResult{Donation: donation}

	switch method {
	case domain.PaymentMethodPayPal:
		result.Gateway = &GatewayDiagnostic{
			Provider:    "paypal",
			Submitted:   true,
			RedirectURL: s.paypalURL,
		}
	case domain.PaymentMethodMpesa:
		result.Gateway = s.pushMpesa(ctx, donation)
	}

	s.notifier.NotifyDonationReceived(ctx, donation)

	return result, nil
}

// pushMpesa performs the STK push round trip. Failures are captured in the
// diagnostic; the donation stays pending either way.
func (s *DonationService) pushMpesa(ctx context.Context, donation *domain.Donation) *GatewayDiagnostic {
	diagnostic := &GatewayDiagnostic{Provider: "mpesa"}

	push, err := s.pusher.Push(ctx, StkPushRequest{
		Phone:       donation.Phone,
		Amount:      donation.Amount,
		Reference:   donation.ExternalReference,
		Description: "Donation",
	})
	if err != nil {
		diagnostic.Error = err.Error()
		return diagnostic
	}

	donation.Provider = "mpesa"
	// An accepted push without identifiers must not blank the donation's
	// own correlation reference.
	if push.CheckoutRequestID != "" {
		donation.ExternalReference = push.CheckoutRequestID
	}
	if push.MerchantRequestID != "" {
		donation.GatewayEventID = push.MerchantRequestID
	}
	if err := s.repo.Update(ctx, donation); err != nil {
		diagnostic.Error = err.Error()
		return diagnostic
	}

	diagnostic.Submitted = true
	diagnostic.CustomerMessage = push.CustomerMessage
	return diagnostic
}

// HandleWebhook authenticates a provider callback, resolves the target
// donation and applies the reported status transition.
func (s *DonationService) HandleWebhook(ctx context.Context, provider string, body []byte, header http.Header, input WebhookInput) (*StatusSnapshot, error) {
	if err := s.verifier.Verify(provider, body, header); err != nil {
		return nil, err
	}

	donation, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	if donation.Provider == "" {
		donation.Provider = provider
	}
	if input.ExternalReference != "" {
		donation.ExternalReference = input.ExternalReference
	}
	if input.GatewayEventID != "" {
		donation.GatewayEventID = input.GatewayEventID
	}

	s.applyStatus(donation, domain.NormalizeStatus(input.Status), input.Reason)

	if err := s.repo.Update(ctx, donation); err != nil {
		return nil, err
	}

	s.notifyTransition(ctx, donation)

	return Snapshot(donation), nil
}

// ManualUpdate applies an operator-supplied status after checking the
// shared token in constant time.
func (s *DonationService) ManualUpdate(ctx context.Context, donationID string, req ManualUpdateRequest) (*StatusSnapshot, error) {
	if s.updateToken == "" ||
		subtle.ConstantTimeCompare([]byte(req.Token), []byte(s.updateToken)) != 1 {
		return nil, ErrInvalidToken
	}

	if donationID == "" {
		return nil, ErrInvalidDonationID
	}
	if strings.TrimSpace(req.Status) == "" {
		return nil, ErrInvalidStatus
	}

	donation, err := s.repo.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}

	if req.Provider != "" && donation.Provider == "" {
		donation.Provider = req.Provider
	}
	if req.ExternalReference != "" {
		donation.ExternalReference = req.ExternalReference
	}
	if req.GatewayEventID != "" {
		donation.GatewayEventID = req.GatewayEventID
	}

	s.applyStatus(donation, domain.NormalizeStatus(req.Status), req.Reason)

	if err := s.repo.Update(ctx, donation); err != nil {
		return nil, err
	}

	s.notifyTransition(ctx, donation)

	return Snapshot(donation), nil
}

// Get retrieves a donation by ID.
func (s *DonationService) Get(ctx context.Context, donationID string) (*domain.Donation, error) {
	if donationID == "" {
		return nil, ErrInvalidDonationID
	}
	return s.repo.GetByID(ctx, donationID)
}

// List retrieves recent donations.
func (s *DonationService) List(ctx context.Context, limit int) ([]*domain.Donation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

// UpdateHeader returns the header name carrying the manual update token.
func (s *DonationService) UpdateHeader() string {
	return s.updateHeader
}

// resolve locates the target donation by internal ID first, then external
// reference, then gateway event ID. Ties on shared references resolve to
// the most recently created row.
func (s *DonationService) resolve(ctx context.Context, input WebhookInput) (*domain.Donation, error) {
	if input.DonationID != "" {
		donation, err := s.repo.GetByID(ctx, input.DonationID)
		if err == nil {
			return donation, nil
		}
		if err != repository.ErrNotFound {
			return nil, err
		}
	}

	if input.ExternalReference != "" {
		donation, err := s.repo.GetByExternalReference(ctx, input.ExternalReference)
		if err == nil {
			return donation, nil
		}
		if err != repository.ErrNotFound {
			return nil, err
		}
	}

	if input.GatewayEventID != "" {
		donation, err := s.repo.GetByGatewayEventID(ctx, input.GatewayEventID)
		if err == nil {
			return donation, nil
		}
		if err != repository.ErrNotFound {
			return nil, err
		}
	}

	return nil, repository.ErrNotFound
}

// applyStatus applies a normalized status transition. Terminal states are
// sticky: re-applying a status to a terminal donation is a no-op.
func (s *DonationService) applyStatus(donation *domain.Donation, status domain.DonationStatus, reason string) {
	if donation.Status.IsTerminal() {
		return
	}

	switch status {
	case domain.DonationStatusCompleted:
		donation.Status = domain.DonationStatusCompleted
		if donation.CompletedAt == nil {
			now := time.Now().UTC()
			donation.CompletedAt = &now
		}
	case domain.DonationStatusFailed:
		donation.Status = domain.DonationStatusFailed
		donation.FailedReason = truncateReason(reason)
	default:
		donation.Status = domain.DonationStatusPending
	}
}

// notifyTransition sends best-effort notifications on terminal transitions.
func (s *DonationService) notifyTransition(ctx context.Context, donation *domain.Donation) {
	switch donation.Status {
	case domain.DonationStatusCompleted:
		s.notifier.NotifyDonationCompleted(ctx, donation)
	case domain.DonationStatusFailed:
		s.notifier.NotifyDonationFailed(ctx, donation)
	}
}

// truncateReason bounds a gateway-supplied failure reason, cutting on a rune
// boundary so a multi-byte character is never split.
func truncateReason(reason string) string {
	if len(reason) <= maxFailedReasonLen {
		return reason
	}
	cut := maxFailedReasonLen
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}

// newReference generates a fresh correlation reference for a donation.
func newReference() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "DON-" + raw[:12]
}
