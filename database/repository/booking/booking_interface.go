package bookingRepo

import (
	"context"
	"time"

	"shipbook/models"
)

// BookingRepository persists shipment bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error)
	Delete(ctx context.Context, id string) error
	// ListByUser pages through a user's bookings, newest first. An empty
	// userID lists every booking.
	ListByUser(ctx context.Context, userID string, page models.Page) ([]models.Booking, int64, error)
	// ListAwaitingPayment returns bookings with an attached payment intent
	// that are still unsettled and were last touched before olderThan.
	ListAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]models.Booking, error)
	// ApplyPaymentState writes change unless the stored payment_status is one
	// of change.UnlessPaymentStatus. It reports whether a document changed.
	ApplyPaymentState(ctx context.Context, id string, change models.PaymentStateChange) (bool, error)
}
