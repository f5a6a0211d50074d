package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"riseup/internal/repository"
	"riseup/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrUnsupportedCurrency),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrMissingPhone),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidDonationID),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest

	// Authorization errors
	case errors.Is(err, service.ErrSignatureMissing),
		errors.Is(err, service.ErrSignatureInvalid),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusForbidden

	// Unknown webhook provider
	case errors.Is(err, service.ErrUnknownProvider):
		return http.StatusNotFound

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
