package service

import "errors"

var (
	// ErrInvalidAmount is returned when the donation amount is not positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrUnsupportedCurrency is returned when the currency is outside the allowed set.
	ErrUnsupportedCurrency = errors.New("currency must be one of USD, KES, EUR, GBP")

	// ErrInvalidPaymentMethod is returned when the payment method is not recognized.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrMissingPhone is returned when an M-Pesa donation carries no phone number.
	ErrMissingPhone = errors.New("phone number is required for mpesa payments")

	// ErrInvalidPhone is returned when a phone number cannot be normalized to an MSISDN.
	ErrInvalidPhone = errors.New("phone number is not a valid M-Pesa number")

	// ErrInvalidDonationID is returned when a donation ID is empty.
	ErrInvalidDonationID = errors.New("invalid donation id")

	// ErrInvalidStatus is returned when a manual update carries no usable status.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrSignatureMissing is returned when a required webhook signature header is absent.
	ErrSignatureMissing = errors.New("webhook signature missing")

	// ErrSignatureInvalid is returned when a webhook signature fails verification.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrInvalidToken is returned when the manual update token does not match.
	ErrInvalidToken = errors.New("invalid update token")

	// ErrUnknownProvider is returned when a webhook names an unconfigured provider.
	ErrUnknownProvider = errors.New("unknown webhook provider")
)
