package domain

import "strings"

// statusAliases maps gateway status vocabulary onto the closed tri-state.
var statusAliases = map[string]DonationStatus{
	"completed":  DonationStatusCompleted,
	"complete":   DonationStatusCompleted,
	"paid":       DonationStatusCompleted,
	"success":    DonationStatusCompleted,
	"successful": DonationStatusCompleted,
	"succeeded":  DonationStatusCompleted,
	"failed":     DonationStatusFailed,
	"fail":       DonationStatusFailed,
	"error":      DonationStatusFailed,
	"cancelled":  DonationStatusFailed,
	"canceled":   DonationStatusFailed,
	"declined":   DonationStatusFailed,
}

// NormalizeStatus maps an arbitrary provider status string to one of the
// three donation statuses. Unknown values fall back to pending.
func NormalizeStatus(raw string) DonationStatus {
	if status, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return DonationStatusPending
}

// methodAliases covers the spellings frontends send for payment methods.
var methodAliases = map[string]PaymentMethod{
	"mpesa":  PaymentMethodMpesa,
	"m-pesa": PaymentMethodMpesa,
	"paypal": PaymentMethodPayPal,
	"card":   PaymentMethodCard,
	"visa":   PaymentMethodCard,
	"bank":   PaymentMethodBank,
}

// ParsePaymentMethod resolves a payment method label to a known method.
// Returns false if the label is not recognized.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	method, ok := methodAliases[strings.ToLower(strings.TrimSpace(raw))]
	return method, ok
}

// NormalizeCurrency upper-cases and trims a currency code and checks it
// against the allowed set. Returns false if the currency is not supported.
func NormalizeCurrency(raw string) (string, bool) {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	return currency, AllowedCurrencies[currency]
}
