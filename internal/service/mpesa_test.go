package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"riseup/internal/config"
)

func testMpesaConfig(baseURL string) config.MpesaConfig {
	return config.MpesaConfig{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
		BaseURL:        baseURL,
		CallbackURL:    "https://example.org/v1/webhooks/mpesa",
	}
}

func TestMpesaPush_SubmitsSignedRequest(t *testing.T) {
	var gotPush stkPushPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "token-123"})
		case "/mpesa/stkpush/v1/processrequest":
			if r.Header.Get("Authorization") != "Bearer token-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if err := json.NewDecoder(r.Body).Decode(&gotPush); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(stkPushResponse{
				MerchantRequestID: "merchant-42",
				CheckoutRequestID: "ws_CO_42",
				ResponseCode:      "0",
				CustomerMessage:   "Success. Request accepted for processing",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewMpesaClient(testMpesaConfig(server.URL))

	result, err := client.Push(context.Background(), StkPushRequest{
		Phone:       "254712345678",
		Amount:      150.5,
		Reference:   "DON-TEST",
		Description: "Donation",
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if result.CheckoutRequestID != "ws_CO_42" {
		t.Errorf("expected checkout id ws_CO_42, got %s", result.CheckoutRequestID)
	}
	if result.MerchantRequestID != "merchant-42" {
		t.Errorf("expected merchant id merchant-42, got %s", result.MerchantRequestID)
	}

	if gotPush.PhoneNumber != "254712345678" || gotPush.PartyA != "254712345678" {
		t.Errorf("expected normalized phone in payload, got %+v", gotPush)
	}
	if gotPush.Amount != 151 {
		t.Errorf("expected rounded-up whole amount 151, got %d", gotPush.Amount)
	}
	if gotPush.BusinessShortCode != "174379" || gotPush.PartyB != "174379" {
		t.Errorf("expected shortcode in payload, got %+v", gotPush)
	}
	if gotPush.Password == "" || gotPush.Timestamp == "" {
		t.Error("expected derived password and timestamp")
	}
	if gotPush.AccountReference != "DON-TEST" {
		t.Errorf("expected account reference DON-TEST, got %s", gotPush.AccountReference)
	}
}

func TestMpesaPush_AuthFailureReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewMpesaClient(testMpesaConfig(server.URL))

	_, err := client.Push(context.Background(), StkPushRequest{
		Phone:  "254712345678",
		Amount: 100,
	})
	if err == nil {
		t.Fatal("expected auth failure to surface as an error")
	}
}

func TestMpesaPush_GatewayRejectionReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "token-123"})
			return
		}
		json.NewEncoder(w).Encode(stkPushResponse{
			ResponseCode:        "1032",
			ResponseDescription: "Request cancelled by user",
		})
	}))
	defer server.Close()

	client := NewMpesaClient(testMpesaConfig(server.URL))

	_, err := client.Push(context.Background(), StkPushRequest{
		Phone:  "254712345678",
		Amount: 100,
	})
	if err == nil {
		t.Fatal("expected gateway rejection to surface as an error")
	}
}

func TestMpesaPush_MissingCredentialsShortCircuits(t *testing.T) {
	// No server: the client must not attempt a network call.
	client := NewMpesaClient(config.MpesaConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := client.Push(context.Background(), StkPushRequest{
		Phone:  "254712345678",
		Amount: 100,
	})
	if err != ErrMpesaNotConfigured {
		t.Errorf("expected ErrMpesaNotConfigured, got %v", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	valid := map[string]string{
		"0712345678":      "254712345678",
		"254712345678":    "254712345678",
		"+254712345678":   "254712345678",
		" 0712 345 678 ":  "254712345678",
		"0110000000":      "254110000000",
		"+254-712-345678": "254712345678",
	}
	for input, expected := range valid {
		got, err := NormalizePhone(input)
		if err != nil {
			t.Errorf("NormalizePhone(%q) unexpected error: %v", input, err)
			continue
		}
		if got != expected {
			t.Errorf("NormalizePhone(%q) = %s, expected %s", input, got, expected)
		}
	}

	invalid := []string{"", "12345", "07123456789", "254712", "not-a-phone", "+1 555 0100"}
	for _, input := range invalid {
		if _, err := NormalizePhone(input); err == nil {
			t.Errorf("NormalizePhone(%q) expected error", input)
		}
	}
}
