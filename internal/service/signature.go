package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"riseup/internal/config"
)

// VerifyStrategy selects how a provider's webhook signatures are checked.
type VerifyStrategy string

const (
	// StrategyNone skips verification unless a secret is configured.
	StrategyNone VerifyStrategy = "none"
	// StrategyGenericHMAC checks an HMAC-SHA256 digest of the raw body.
	StrategyGenericHMAC VerifyStrategy = "generic_hmac"
	// StrategyStripe checks Stripe's structured t=,v1= signature header.
	StrategyStripe VerifyStrategy = "stripe_structured"
)

// ProviderRule describes how to authenticate webhooks for one provider.
type ProviderRule struct {
	Secret    string
	Headers   []string
	Strategy  VerifyStrategy
	Tolerance time.Duration
}

// signaturePrefixes are stripped from generic signature header values.
var signaturePrefixes = []string{"sha256=", "v1="}

// WebhookVerifier authenticates inbound webhook requests per provider.
type WebhookVerifier struct {
	rules   map[string]ProviderRule
	require bool

	// now is swapped out in tests.
	now func() time.Time
}

// NewWebhookVerifier builds a verifier from the webhook configuration.
func NewWebhookVerifier(cfg config.WebhookConfig) *WebhookVerifier {
	return &WebhookVerifier{
		rules: map[string]ProviderRule{
			"stripe": {
				Secret:    cfg.StripeSecret,
				Headers:   []string{"Stripe-Signature"},
				Strategy:  StrategyStripe,
				Tolerance: cfg.StripeTolerance,
			},
			"paypal": {
				Secret:   cfg.PayPalSecret,
				Headers:  []string{"Paypal-Transmission-Sig", "X-Signature"},
				Strategy: StrategyGenericHMAC,
			},
			"mpesa": {
				Secret:   cfg.MpesaSecret,
				Headers:  []string{"X-Mpesa-Signature", "X-Signature"},
				Strategy: StrategyGenericHMAC,
			},
		},
		require: cfg.RequireSignature,
		now:     time.Now,
	}
}

// Rule returns the configured rule for a provider.
func (v *WebhookVerifier) Rule(provider string) (ProviderRule, bool) {
	rule, ok := v.rules[provider]
	return rule, ok
}

// HeaderNames returns the signature header names for each known provider.
func (v *WebhookVerifier) HeaderNames() map[string][]string {
	names := make(map[string][]string, len(v.rules))
	for provider, rule := range v.rules {
		names[provider] = rule.Headers
	}
	return names
}

// Verify authenticates a webhook request body against the provider's rule.
// A provider without a secret passes unless verification is globally
// required; a configured secret always makes verification mandatory.
func (v *WebhookVerifier) Verify(provider string, body []byte, header http.Header) error {
	rule, ok := v.rules[provider]
	if !ok {
		return ErrUnknownProvider
	}

	if rule.Secret == "" {
		if !v.require {
			return nil
		}
		return ErrSignatureMissing
	}

	signature := firstHeader(header, rule.Headers)
	if signature == "" {
		return ErrSignatureMissing
	}

	switch rule.Strategy {
	case StrategyStripe:
		return v.verifyStripe(rule, body, signature)
	default:
		return verifyGenericHMAC(rule.Secret, body, signature)
	}
}

// verifyGenericHMAC checks an HMAC-SHA256 hex digest of the raw body,
// tolerating known scheme prefixes on the header value.
func verifyGenericHMAC(secret string, body []byte, signature string) error {
	candidate := strings.TrimSpace(signature)
	for _, prefix := range signaturePrefixes {
		candidate = strings.TrimPrefix(candidate, prefix)
	}

	expected := computeHMAC(secret, body)
	if !hmac.Equal([]byte(expected), []byte(candidate)) {
		return ErrSignatureInvalid
	}
	return nil
}

// verifyStripe parses the structured "t=...,v1=...,v1=..." header, recomputes
// the HMAC over "{timestamp}.{body}" and accepts any matching v1 candidate
// inside the replay tolerance window.
func (v *WebhookVerifier) verifyStripe(rule ProviderRule, body []byte, signature string) error {
	var timestamp int64
	var candidates []string

	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return ErrSignatureInvalid
			}
			timestamp = parsed
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if timestamp == 0 || len(candidates) == 0 {
		return ErrSignatureInvalid
	}

	tolerance := rule.Tolerance
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > tolerance || age < -tolerance {
		return ErrSignatureInvalid
	}

	signed := fmt.Sprintf("%d.%s", timestamp, body)
	expected := computeHMAC(rule.Secret, []byte(signed))
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}

	return ErrSignatureInvalid
}

// computeHMAC returns the hex HMAC-SHA256 digest of payload under secret.
func computeHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func firstHeader(header http.Header, names []string) string {
	for _, name := range names {
		if value := header.Get(name); value != "" {
			return value
		}
	}
	return ""
}
