package domain

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]DonationStatus{
		"completed":  DonationStatusCompleted,
		"Complete":   DonationStatusCompleted,
		"PAID":       DonationStatusCompleted,
		"success":    DonationStatusCompleted,
		"successful": DonationStatusCompleted,
		"succeeded":  DonationStatusCompleted,
		"failed":     DonationStatusFailed,
		"fail":       DonationStatusFailed,
		"error":      DonationStatusFailed,
		"cancelled":  DonationStatusFailed,
		"canceled":   DonationStatusFailed,
		"Declined":   DonationStatusFailed,
		"pending":    DonationStatusPending,
		"":           DonationStatusPending,
		"whatever":   DonationStatusPending,
		"  paid  ":   DonationStatusCompleted,
	}

	for input, expected := range cases {
		if got := NormalizeStatus(input); got != expected {
			t.Errorf("NormalizeStatus(%q) = %s, expected %s", input, got, expected)
		}
	}
}

func TestNormalizeStatusIsTotal(t *testing.T) {
	// Arbitrary garbage must land in the tri-state, never panic.
	inputs := []string{"\x00\xff", "ПЛАТЕЖ", "123", "complete\n", "paid;drop"}
	for _, input := range inputs {
		status := NormalizeStatus(input)
		if status != DonationStatusPending && !status.IsTerminal() {
			t.Errorf("NormalizeStatus(%q) = %q, outside tri-state", input, status)
		}
	}
}

func TestParsePaymentMethod(t *testing.T) {
	cases := map[string]PaymentMethod{
		"mpesa":  PaymentMethodMpesa,
		"M-Pesa": PaymentMethodMpesa,
		"visa":   PaymentMethodCard,
		"card":   PaymentMethodCard,
		"paypal": PaymentMethodPayPal,
		"bank":   PaymentMethodBank,
	}
	for input, expected := range cases {
		method, ok := ParsePaymentMethod(input)
		if !ok || method != expected {
			t.Errorf("ParsePaymentMethod(%q) = (%s, %v), expected %s", input, method, ok, expected)
		}
	}

	if _, ok := ParsePaymentMethod("bitcoin"); ok {
		t.Error("expected bitcoin to be rejected")
	}
}

func TestNormalizeCurrency(t *testing.T) {
	if currency, ok := NormalizeCurrency(" kes "); !ok || currency != "KES" {
		t.Errorf("expected (KES, true), got (%s, %v)", currency, ok)
	}
	if _, ok := NormalizeCurrency("ZAR"); ok {
		t.Error("expected ZAR to be rejected")
	}
}
