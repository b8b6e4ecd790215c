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

// Reconciler pulls the authoritative intent state from the provider and
// runs it through the same StateMachine as webhook events.
type Reconciler struct {
	Bookings repository.BookingRepository
	Provider Provider
	Machine  *StateMachine
	Logger   *zap.Logger
}

func NewReconciler(bookings repository.BookingRepository, provider Provider, machine *StateMachine, logger *zap.Logger) *Reconciler {
	return &Reconciler{Bookings: bookings, Provider: provider, Machine: machine, Logger: logger}
}

func (r *Reconciler) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

// Reconcile syncs a booking on behalf of its owner or an operator.
func (r *Reconciler) Reconcile(ctx context.Context, identity models.Identity, req models.ReconcileRequest) (*models.ReconcileResponse, error) {
	booking, err := r.loadBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccessOwned(booking.UserID, models.CapReconcileOwn, models.CapReconcileAny) {
		return nil, ErrForbidden
	}
	return r.reconcile(ctx, booking, req.PaymentIntentID)
}

// ReconcileSystem syncs a booking for a background job.
func (r *Reconciler) ReconcileSystem(ctx context.Context, bookingID string) (*models.ReconcileResponse, error) {
	booking, err := r.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return r.reconcile(ctx, booking, "")
}

func (r *Reconciler) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := r.Bookings.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	return booking, err
}

func (r *Reconciler) reconcile(ctx context.Context, booking *models.Booking, intentID string) (*models.ReconcileResponse, error) {
	if intentID == "" {
		intentID = booking.PaymentIntentID
	}
	if intentID == "" {
		return nil, ErrNoPaymentIntent
	}

	state, err := r.Provider.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", intentID, err)
	}
	if owner := state.Metadata[MetadataBookingID]; owner != booking.ID {
		r.logger().Warn("payment intent belongs to a different booking",
			zap.String("bookingID", booking.ID),
			zap.String("paymentIntentID", intentID),
			zap.String("metadataBookingID", owner))
		mismatch := fmt.Errorf("%w: intent %s is tagged for booking %q", ErrBookingMetadataMismatch, intentID, owner)
		if intentID == booking.PaymentIntentID {
			// The booking's own intent is compromised; a foreign intent named
			// by the caller leaves the booking alone.
			if err := r.Machine.failIntegrity(ctx, booking, intentID, "booking metadata mismatch: intent tagged for "+owner); err != nil {
				return nil, err
			}
		}
		return nil, mismatch
	}

	tr, err := r.Machine.Apply(ctx, booking, Observation{
		Source:          SourceReconcile,
		Outcome:         state.Outcome,
		PaymentIntentID: state.ID,
		AmountCents:     state.AmountCents,
		Currency:        state.Currency,
		FailureMessage:  state.FailureMessage,
	})
	if err != nil {
		return nil, err
	}

	b := tr.Booking
	return &models.ReconcileResponse{
		BookingID:       b.ID,
		PaymentIntentID: intentID,
		BookingStatus:   b.Status,
		PaymentStatus:   b.PaymentStatus,
		Synced:          b.Status == models.BookingStatusConfirmed && b.PaymentStatus == models.PaymentStatusPaid,
	}, nil
}
