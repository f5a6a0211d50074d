package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"riseup/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationDonationReceived  NotificationType = "DONATION_RECEIVED"
	NotificationDonationCompleted NotificationType = "DONATION_COMPLETED"
	NotificationDonationFailed    NotificationType = "DONATION_FAILED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type      NotificationType
	Recipient string
	Title     string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// NotificationService handles best-effort notification delivery. Delivery
// failures never block or fail the triggering request.
type NotificationService struct {
	// In a real system, this would have:
	// - Email client (SendGrid)
	// - SMS client for M-Pesa confirmations
	// - WebSocket connections for real-time dashboards
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyDonationReceived acknowledges a new donation to the donor.
func (s *NotificationService) NotifyDonationReceived(ctx context.Context, donation *domain.Donation) {
	s.send(ctx, Notification{
		Type:      NotificationDonationReceived,
		Recipient: donation.Email,
		Title:     "Thank You for Your Donation",
		Message:   fmt.Sprintf("We received your donation of %.2f %s and are awaiting payment confirmation.", donation.Amount, donation.Currency),
		Data: map[string]interface{}{
			"donation_id":    donation.ID,
			"amount":         donation.Amount,
			"currency":       donation.Currency,
			"payment_method": donation.PaymentMethod,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyDonationCompleted sends the donor a payment confirmation.
func (s *NotificationService) NotifyDonationCompleted(ctx context.Context, donation *domain.Donation) {
	s.send(ctx, Notification{
		Type:      NotificationDonationCompleted,
		Recipient: donation.Email,
		Title:     "Donation Confirmed",
		Message:   fmt.Sprintf("Your donation of %.2f %s has been confirmed. Thank you!", donation.Amount, donation.Currency),
		Data: map[string]interface{}{
			"donation_id":  donation.ID,
			"provider":     donation.Provider,
			"completed_at": donation.CompletedAt,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyDonationFailed tells the donor the payment did not go through.
func (s *NotificationService) NotifyDonationFailed(ctx context.Context, donation *domain.Donation) {
	s.send(ctx, Notification{
		Type:      NotificationDonationFailed,
		Recipient: donation.Email,
		Title:     "Donation Payment Failed",
		Message:   fmt.Sprintf("Your donation of %.2f %s could not be processed. Please try again.", donation.Amount, donation.Currency),
		Data: map[string]interface{}{
			"donation_id": donation.ID,
			"reason":      donation.FailedReason,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) {
	// In a real implementation, this would:
	// 1. Store the notification in the database
	// 2. Send email via the configured provider
	// 3. Broadcast via WebSocket for admin dashboards

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.Recipient, notification.Title, notification.Message)
}
