package domain

import "time"

// DonationStatus represents the current status of a donation.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusFailed    DonationStatus = "failed"
)

// IsTerminal reports whether the status is a final state.
func (s DonationStatus) IsTerminal() bool {
	return s == DonationStatusCompleted || s == DonationStatusFailed
}

// PaymentMethod represents how a donor chose to pay.
type PaymentMethod string

const (
	PaymentMethodMpesa  PaymentMethod = "mpesa"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodBank   PaymentMethod = "bank"
)

// AllowedCurrencies is the fixed set of currencies donations may use.
var AllowedCurrencies = map[string]bool{
	"USD": true,
	"KES": true,
	"EUR": true,
	"GBP": true,
}

// Donation represents a single donation and its payment lifecycle.
type Donation struct {
	ID                string
	DonorName         string
	Email             string
	Phone             string
	Amount            float64
	Currency          string
	PaymentMethod     PaymentMethod
	Anonymous         bool
	Message           string
	Provider          string
	Status            DonationStatus
	ExternalReference string
	GatewayEventID    string
	CompletedAt       *time.Time
	FailedReason      string
	CreatedAt         time.Time
}
