package payment

import (
	"context"
	"errors"
	"fmt"

	"shipbook/database"
	"shipbook/database/repository"
	"shipbook/models"

	"go.uber.org/zap"
)

// MetadataBookingID is the intent metadata key that ties an intent to its
// booking.
const MetadataBookingID = "booking_id"

// Payments starts and refunds provider payments for bookings.
type Payments struct {
	Bookings repository.BookingRepository
	Provider Provider
	Logger   *zap.Logger
}

func NewPayments(bookings repository.BookingRepository, provider Provider, logger *zap.Logger) *Payments {
	return &Payments{Bookings: bookings, Provider: provider, Logger: logger}
}

// CreatePaymentIntent creates (or, through the idempotency key, returns the
// existing) intent for the booking's current total and attaches it to the
// booking.
func (s *Payments) CreatePaymentIntent(ctx context.Context, identity models.Identity, bookingID string) (*models.PaymentIntentResponse, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if booking.UserID != identity.UserID || !identity.Can(models.CapCreateBooking) {
		return nil, ErrForbidden
	}
	if !payable(booking) {
		return nil, fmt.Errorf("%w: status %s/%s", ErrNotPayable, booking.Status, booking.PaymentStatus)
	}

	state, err := s.Provider.CreatePaymentIntent(ctx, IntentParams{
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		AmountCents:    booking.TotalCostCents,
		Currency:       booking.Currency,
		IdempotencyKey: fmt.Sprintf("booking-%s-%d", booking.ID, booking.TotalCostCents),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	attached, err := s.Bookings.ApplyPaymentState(ctx, booking.ID, models.PaymentStateChange{
		Status:          models.BookingStatusPendingPayment,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentIntentID: state.ID,
		UnlessPaymentStatus: []models.PaymentStatus{
			models.PaymentStatusPaid,
			models.PaymentStatusRefunded,
			models.PaymentStatusDisputed,
			models.PaymentStatusProcessing,
			models.PaymentStatusCanceled,
		},
	})
	if err != nil {
		return nil, err
	}
	if !attached {
		return nil, fmt.Errorf("%w: payment state changed while creating the intent", ErrNotPayable)
	}

	if s.Logger != nil {
		s.Logger.Info("payment intent attached",
			zap.String("bookingID", booking.ID), zap.String("paymentIntentID", state.ID))
	}
	return &models.PaymentIntentResponse{
		BookingID:       booking.ID,
		PaymentIntentID: state.ID,
		ClientSecret:    state.ClientSecret,
		AmountCents:     booking.TotalCostCents,
		Currency:        booking.Currency,
	}, nil
}

func payable(b *models.Booking) bool {
	switch b.Status {
	case models.BookingStatusPendingPayment, models.BookingStatusPaymentFailed:
	default:
		return false
	}
	return b.PaymentStatus == models.PaymentStatusPending || b.PaymentStatus == models.PaymentStatusFailed
}

// RefundBooking asks the provider to refund a paid booking. The booking
// moves to refunded when the provider's refund event is processed.
func (s *Payments) RefundBooking(ctx context.Context, identity models.Identity, bookingID string) (*models.Booking, error) {
	if !identity.Can(models.CapRefund) {
		return nil, ErrForbidden
	}
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if !booking.IsPaid() || booking.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: payment status is %s", ErrNotRefundable, booking.PaymentStatus)
	}

	if err := s.Provider.Refund(ctx, booking.PaymentIntentID, "refund-"+booking.ID); err != nil {
		return nil, fmt.Errorf("refund payment intent %s: %w", booking.PaymentIntentID, err)
	}
	if s.Logger != nil {
		s.Logger.Info("refund requested",
			zap.String("bookingID", booking.ID),
			zap.String("operator", identity.UserID))
	}
	return booking, nil
}
