package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"riseup/internal/domain"
	"riseup/internal/service"
)

// DonationHandler handles HTTP requests for donations.
type DonationHandler struct {
	donationService *service.DonationService
	statsService    *service.StatsService
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(donationService *service.DonationService, statsService *service.StatsService) *DonationHandler {
	return &DonationHandler{
		donationService: donationService,
		statsService:    statsService,
	}
}

// CreateDonationRequest is the HTTP request body for initiating a donation.
// Camel-case aliases match what the public site sends.
type CreateDonationRequest struct {
	DonorName     string  `json:"donor_name"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
	PaymentAlias  string  `json:"paymentMethod"`
	PaymentToken  string  `json:"paymentToken"`
	Anonymous     bool    `json:"anonymous"`
	Message       string  `json:"message"`
}

// DonationResponse is the HTTP representation of a donation.
type DonationResponse struct {
	ID                string  `json:"id"`
	DonorName         string  `json:"donor_name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	PaymentMethod     string  `json:"payment_method"`
	Anonymous         bool    `json:"anonymous"`
	Message           string  `json:"message"`
	Provider          string  `json:"provider"`
	Status            string  `json:"status"`
	ExternalReference string  `json:"external_reference"`
	GatewayEventID    string  `json:"gateway_event_id"`
	CompletedAt       *string `json:"completed_at"`
	FailedReason      string  `json:"failed_reason"`
	CreatedAt         string  `json:"created_at"`
}

// InitiateDonationResponse is the response for donation initiation.
type InitiateDonationResponse struct {
	Donation DonationResponse           `json:"donation"`
	Gateway  *service.GatewayDiagnostic `json:"gateway,omitempty"`
}

// CreateDonation handles POST /v1/donations
func (h *DonationHandler) CreateDonation(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = req.PaymentAlias
	}

	result, err := h.donationService.Initiate(c.Request.Context(), service.InitiateRequest{
		DonorName:     req.DonorName,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: method,
		Anonymous:     req.Anonymous,
		Message:       req.Message,
		PaymentToken:  req.PaymentToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, InitiateDonationResponse{
		Donation: toDonationResponse(result.Donation),
		Gateway:  result.Gateway,
	})
}

// GetDonation handles GET /v1/donations/:id
func (h *DonationHandler) GetDonation(c *gin.Context) {
	donation, err := h.donationService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDonationResponse(donation))
}

// ListDonations handles GET /v1/donations
func (h *DonationHandler) ListDonations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	donations, err := h.donationService.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]DonationResponse, 0, len(donations))
	for _, donation := range donations {
		responses = append(responses, toDonationResponse(donation))
	}

	respondJSON(c, http.StatusOK, gin.H{"donations": responses})
}

// GetStats handles GET /v1/donations/stats
func (h *DonationHandler) GetStats(c *gin.Context) {
	totals, err := h.statsService.Totals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"total_amount":    totals.TotalAmount,
		"total_donations": totals.TotalDonations,
	})
}

func toDonationResponse(donation *domain.Donation) DonationResponse {
	resp := DonationResponse{
		ID:                donation.ID,
		DonorName:         donation.DonorName,
		Email:             donation.Email,
		Phone:             donation.Phone,
		Amount:            donation.Amount,
		Currency:          donation.Currency,
		PaymentMethod:     string(donation.PaymentMethod),
		Anonymous:         donation.Anonymous,
		Message:           donation.Message,
		Provider:          donation.Provider,
		Status:            string(donation.Status),
		ExternalReference: donation.ExternalReference,
		GatewayEventID:    donation.GatewayEventID,
		FailedReason:      donation.FailedReason,
		CreatedAt:         donation.CreatedAt.UTC().Format(time.RFC3339),
	}
	if donation.CompletedAt != nil {
		completedAt := donation.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &completedAt
	}
	return resp
}
