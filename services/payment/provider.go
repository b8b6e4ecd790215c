package payment

import (
	"context"

	"shipbook/models"
)

// IntentParams describes a payment intent to create for a booking.
type IntentParams struct {
	BookingID      string
	UserID         string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

// Provider is the external payment processor.
type Provider interface {
	CreatePaymentIntent(ctx context.Context, params IntentParams) (*models.PaymentIntentState, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*models.PaymentIntentState, error)
	Refund(ctx context.Context, intentID, idempotencyKey string) error
}
