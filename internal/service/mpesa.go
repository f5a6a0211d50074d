package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"riseup/internal/config"
)

// StkPushRequest carries the parameters for an M-Pesa push payment.
type StkPushRequest struct {
	Phone       string
	Amount      float64
	Reference   string
	Description string
}

// StkPushResult carries the correlation identifiers the gateway assigns.
type StkPushResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	CustomerMessage   string
}

// StkPusher submits a push-payment request to a mobile-money gateway.
type StkPusher interface {
	Push(ctx context.Context, req StkPushRequest) (*StkPushResult, error)
}

// ErrMpesaNotConfigured short-circuits the push when credentials are absent.
var ErrMpesaNotConfigured = errors.New("mpesa credentials not configured")

// MpesaClient talks to the Daraja STK push API.
type MpesaClient struct {
	cfg        config.MpesaConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewMpesaClient creates an M-Pesa client with a bounded request timeout.
func NewMpesaClient(cfg config.MpesaConfig) *MpesaClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &MpesaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type mpesaTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Push obtains a bearer token, signs the request envelope and submits the
// STK push. No retries; any failure is reported to the caller as-is.
func (c *MpesaClient) Push(ctx context.Context, req StkPushRequest) (*StkPushResult, error) {
	if c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" || c.cfg.ShortCode == "" || c.cfg.Passkey == "" {
		return nil, ErrMpesaNotConfigured
	}

	token, err := c.fetchToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("mpesa token: %w", err)
	}

	timestamp := c.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString(
		[]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp),
	)

	// The gateway only accepts whole-unit amounts of at least 1.
	amount := int(math.Ceil(req.Amount))
	if amount < 1 {
		amount = 1
	}

	payload := stkPushPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            req.Phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := c.cfg.BaseURL + "/mpesa/stkpush/v1/processrequest"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mpesa stkpush: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mpesa stkpush: status %d: %s", resp.StatusCode, respBody)
	}

	var pushResp stkPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		return nil, fmt.Errorf("mpesa stkpush: decode response: %w", err)
	}

	if pushResp.ResponseCode != "" && pushResp.ResponseCode != "0" {
		return nil, fmt.Errorf("mpesa stkpush: gateway rejected request: %s", pushResp.ResponseDescription)
	}

	return &StkPushResult{
		MerchantRequestID: pushResp.MerchantRequestID,
		CheckoutRequestID: pushResp.CheckoutRequestID,
		CustomerMessage:   pushResp.CustomerMessage,
	}, nil
}

// fetchToken requests an OAuth bearer token using the app key and secret.
func (c *MpesaClient) fetchToken(ctx context.Context) (string, error) {
	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var tokenResp mpesaTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	if tokenResp.AccessToken == "" {
		return "", errors.New("empty access token")
	}

	return tokenResp.AccessToken, nil
}

var msisdnDigits = regexp.MustCompile(`^[0-9]+$`)

// NormalizePhone canonicalizes a Kenyan phone number to the 12-digit MSISDN
// form the gateway expects (2547XXXXXXXX). A leading "0" plus nine digits
// gets the country code prefixed; an already-prefixed number passes through.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")

	if phone == "" {
		return "", ErrMissingPhone
	}
	if !msisdnDigits.MatchString(phone) {
		return "", ErrInvalidPhone
	}

	switch {
	case len(phone) == 10 && phone[0] == '0':
		return "254" + phone[1:], nil
	case len(phone) == 12 && strings.HasPrefix(phone, "254"):
		return phone, nil
	default:
		return "", ErrInvalidPhone
	}
}
