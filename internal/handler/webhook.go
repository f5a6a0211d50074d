package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"riseup/internal/service"
)

// WebhookHandler handles provider callbacks and manual status updates.
type WebhookHandler struct {
	donationService *service.DonationService
	verifier        *service.WebhookVerifier
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(donationService *service.DonationService, verifier *service.WebhookVerifier) *WebhookHandler {
	return &WebhookHandler{
		donationService: donationService,
		verifier:        verifier,
	}
}

// webhookBody covers the field aliases different gateways use.
type webhookBody struct {
	DonationID        string `json:"donation_id"`
	ID                string `json:"id"`
	ExternalReference string `json:"external_reference"`
	Reference         string `json:"reference"`
	GatewayEventID    string `json:"gateway_event_id"`
	EventID           string `json:"event_id"`
	Status            string `json:"status"`
	Reason            string `json:"reason"`
	Message           string `json:"message"`

	// Daraja wraps STK push results in a callback envelope.
	Body *struct {
		StkCallback *struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// toInput coalesces the aliases into a single webhook input.
func (b *webhookBody) toInput() service.WebhookInput {
	input := service.WebhookInput{
		DonationID:        firstNonEmpty(b.DonationID, b.ID),
		ExternalReference: firstNonEmpty(b.ExternalReference, b.Reference),
		GatewayEventID:    firstNonEmpty(b.GatewayEventID, b.EventID),
		Status:            b.Status,
		Reason:            firstNonEmpty(b.Reason, b.Message),
	}

	if b.Body != nil && b.Body.StkCallback != nil {
		callback := b.Body.StkCallback
		input.ExternalReference = callback.CheckoutRequestID
		input.GatewayEventID = callback.MerchantRequestID
		input.Reason = callback.ResultDesc
		if callback.ResultCode == 0 {
			input.Status = "completed"
		} else {
			input.Status = "failed"
		}
	}

	return input
}

// HandleWebhook handles POST /v1/webhooks/:provider
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	provider := c.Param("provider")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unable to read request body"})
		return
	}

	var payload webhookBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
			return
		}
	}

	snapshot, err := h.donationService.HandleWebhook(
		c.Request.Context(), provider, body, c.Request.Header, payload.toInput(),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"detail":   fmt.Sprintf("%s webhook processed", provider),
		"donation": snapshot,
	})
}

// ManualUpdateRequest is the HTTP request body for a manual status update.
type ManualUpdateRequest struct {
	Status            string `json:"status"`
	Reason            string `json:"reason"`
	Provider          string `json:"provider"`
	ExternalReference string `json:"external_reference"`
	GatewayEventID    string `json:"gateway_event_id"`
}

// ManualUpdate handles POST /v1/donations/:id/status
func (h *WebhookHandler) ManualUpdate(c *gin.Context) {
	var req ManualUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	snapshot, err := h.donationService.ManualUpdate(c.Request.Context(), c.Param("id"), service.ManualUpdateRequest{
		Token:             c.GetHeader(h.donationService.UpdateHeader()),
		Status:            req.Status,
		Reason:            req.Reason,
		Provider:          req.Provider,
		ExternalReference: req.ExternalReference,
		GatewayEventID:    req.GatewayEventID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"detail":   "status updated",
		"donation": snapshot,
	})
}

// PaymentMethods handles GET /v1/payments/methods
func (h *WebhookHandler) PaymentMethods(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{
		"methods":         []string{"mpesa", "paypal", "card", "bank"},
		"currencies":      []string{"USD", "KES", "EUR", "GBP"},
		"webhook_headers": h.verifier.HeaderNames(),
	})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
