package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shipbook/database/repository"
	"shipbook/models"
	"shipbook/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observation is one fact about a payment intent, from a webhook event or
// from a reconciliation pull. Both paths feed the same StateMachine.
type Observation struct {
	Source          string
	Outcome         models.PaymentOutcome
	PaymentIntentID string
	AmountCents     int64
	Currency        string
	FailureMessage  string
}

const (
	SourceWebhook   = "webhook"
	SourceReconcile = "reconcile"
)

// Transition is the result of applying an observation.
type Transition struct {
	Booking   *models.Booking
	Applied   bool
	Confirmed bool
	Invoice   *models.Invoice
}

// Statuses a not-yet-paid transition may never overwrite.
var settledStatuses = []models.PaymentStatus{
	models.PaymentStatusPaid,
	models.PaymentStatusRefunded,
	models.PaymentStatusDisputed,
	models.PaymentStatusCanceled,
}

// Informational outcomes only move a booking that is still waiting on its
// intent. They never clear a failure or revive a canceled booking.
var informationalGuard = append([]models.PaymentStatus{models.PaymentStatusFailed}, settledStatuses...)

// StateMachine validates observations against a booking and writes the
// resulting payment state with a conditional update. There is no booking
// lock: concurrent callers converge because the paid guard lets exactly one
// of them win and invoices are keyed by payment intent.
type StateMachine struct {
	Bookings repository.BookingRepository
	Packages repository.PackageRepository
	Invoices repository.InvoiceRepository
	Notifier notification.Dispatcher
	Logger   *zap.Logger
	Now      func() time.Time
}

func (m *StateMachine) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *StateMachine) logger() *zap.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return zap.NewNop()
}

// Apply moves b according to obs and returns the booking as stored
// afterwards.
func (m *StateMachine) Apply(ctx context.Context, b *models.Booking, obs Observation) (*Transition, error) {
	log := m.logger().With(
		zap.String("bookingID", b.ID),
		zap.String("source", obs.Source),
		zap.String("outcome", string(obs.Outcome)),
		zap.String("paymentIntentID", obs.PaymentIntentID))

	change, reason, ok := m.plan(b, obs)
	if !ok {
		if b.IsPaid() && obs.Outcome == models.OutcomeSucceeded && obs.PaymentIntentID == b.PaymentIntentID {
			// Replays of the winning intent heal a missing invoice.
			inv, err := m.ensureInvoice(ctx, b)
			if err != nil {
				return nil, err
			}
			return &Transition{Booking: b, Invoice: inv}, nil
		}
		if reason == reasonSecondIntent {
			log.Warn("payment observation conflicts with settled booking", zap.String("reason", reason))
		} else {
			log.Info("payment observation not applied", zap.String("reason", reason))
		}
		return &Transition{Booking: b}, nil
	}

	applied, err := m.Bookings.ApplyPaymentState(ctx, b.ID, change)
	if err != nil {
		return nil, fmt.Errorf("apply payment state: %w", err)
	}
	current, err := m.Bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("reload booking: %w", err)
	}

	tr := &Transition{
		Booking:   current,
		Applied:   applied,
		Confirmed: applied && change.PaymentStatus == models.PaymentStatusPaid,
	}
	if applied {
		log.Info("payment state changed",
			zap.String("status", string(current.Status)),
			zap.String("paymentStatus", string(current.PaymentStatus)),
			zap.String("failureReason", current.FailureReason))
		m.notify(ctx, current, tr.Confirmed, log)
	}

	if change.PaymentStatus == models.PaymentStatusPaid && current.IsPaid() && current.PaymentIntentID == obs.PaymentIntentID {
		inv, err := m.ensureInvoice(ctx, current)
		if err != nil {
			return nil, err
		}
		tr.Invoice = inv
	}
	return tr, nil
}

const (
	reasonAlreadyPaid   = "booking already paid"
	reasonSecondIntent  = "another intent succeeded for a paid booking"
	reasonRefunded      = "booking already refunded"
	reasonDisputed      = "booking under dispute"
	reasonStaleIntent   = "observation for a superseded payment intent"
	reasonCanceled      = "booking payment canceled"
	reasonInformational = "informational outcome after a terminal result"
	reasonIgnored       = "outcome carries no state change"
)

// plan decides the conditional update for obs, or why there is none.
func (m *StateMachine) plan(b *models.Booking, obs Observation) (models.PaymentStateChange, string, bool) {
	switch b.PaymentStatus {
	case models.PaymentStatusPaid:
		switch obs.Outcome {
		case models.OutcomeDisputeCreated:
			return disputed(), "", true
		case models.OutcomeRefunded:
			return refunded(), "", true
		case models.OutcomeSucceeded:
			if obs.PaymentIntentID != b.PaymentIntentID {
				return models.PaymentStateChange{}, reasonSecondIntent, false
			}
		}
		return models.PaymentStateChange{}, reasonAlreadyPaid, false
	case models.PaymentStatusRefunded:
		return models.PaymentStateChange{}, reasonRefunded, false
	case models.PaymentStatusDisputed:
		if obs.Outcome == models.OutcomeRefunded {
			return refunded(), "", true
		}
		return models.PaymentStateChange{}, reasonDisputed, false
	case models.PaymentStatusCanceled:
		if obs.Outcome == models.OutcomeRefunded {
			return refunded(), "", true
		}
		return models.PaymentStateChange{}, reasonCanceled, false
	}

	if b.PaymentIntentID != "" && obs.PaymentIntentID != "" &&
		obs.PaymentIntentID != b.PaymentIntentID && obs.Outcome != models.OutcomeSucceeded {
		return models.PaymentStateChange{}, reasonStaleIntent, false
	}

	unpaid := func(status models.BookingStatus, ps models.PaymentStatus, reason string) models.PaymentStateChange {
		return models.PaymentStateChange{
			Status:              status,
			PaymentStatus:       ps,
			PaymentIntentID:     obs.PaymentIntentID,
			FailureReason:       reason,
			UnlessPaymentStatus: settledStatuses,
		}
	}

	switch obs.Outcome {
	case models.OutcomeSucceeded:
		if reason := amountMismatch(b, obs); reason != "" {
			return unpaid(models.BookingStatusPaymentFailed, models.PaymentStatusFailed, reason), "", true
		}
		change := unpaid(models.BookingStatusConfirmed, models.PaymentStatusPaid, "")
		paidAt := m.now()
		change.PaidAt = &paidAt
		return change, "", true
	case models.OutcomeFailed:
		reason := obs.FailureMessage
		if reason == "" {
			reason = "payment failed"
		}
		return unpaid(models.BookingStatusPaymentFailed, models.PaymentStatusFailed, reason), "", true
	case models.OutcomeCanceled:
		return unpaid(models.BookingStatusCanceled, models.PaymentStatusCanceled, ""), "", true
	case models.OutcomeProcessing, models.OutcomeRequiresAction:
		if b.PaymentStatus != models.PaymentStatusPending && b.PaymentStatus != models.PaymentStatusProcessing {
			return models.PaymentStateChange{}, reasonInformational, false
		}
		ps := models.PaymentStatusPending
		if obs.Outcome == models.OutcomeProcessing {
			ps = models.PaymentStatusProcessing
		}
		change := unpaid(models.BookingStatusPendingPayment, ps, "")
		change.UnlessPaymentStatus = informationalGuard
		return change, "", true
	case models.OutcomeDisputeCreated:
		return disputed(), "", true
	case models.OutcomeRefunded:
		return refunded(), "", true
	}
	return models.PaymentStateChange{}, reasonIgnored, false
}

// failIntegrity marks b failed after an integrity conflict on intentID. A
// booking that already settled keeps its state.
func (m *StateMachine) failIntegrity(ctx context.Context, b *models.Booking, intentID, reason string) error {
	applied, err := m.Bookings.ApplyPaymentState(ctx, b.ID, models.PaymentStateChange{
		Status:              models.BookingStatusPaymentFailed,
		PaymentStatus:       models.PaymentStatusFailed,
		PaymentIntentID:     intentID,
		FailureReason:       reason,
		UnlessPaymentStatus: settledStatuses,
	})
	if err != nil {
		return fmt.Errorf("apply payment state: %w", err)
	}
	if !applied {
		return nil
	}
	current, err := m.Bookings.GetByID(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("reload booking: %w", err)
	}
	log := m.logger().With(zap.String("bookingID", b.ID), zap.String("paymentIntentID", intentID))
	log.Warn("payment failed on integrity conflict", zap.String("failureReason", reason))
	m.notify(ctx, current, false, log)
	return nil
}

func disputed() models.PaymentStateChange {
	return models.PaymentStateChange{
		Status:              models.BookingStatusUnderReview,
		PaymentStatus:       models.PaymentStatusDisputed,
		UnlessPaymentStatus: []models.PaymentStatus{models.PaymentStatusDisputed, models.PaymentStatusRefunded, models.PaymentStatusCanceled},
	}
}

func refunded() models.PaymentStateChange {
	return models.PaymentStateChange{
		Status:              models.BookingStatusCanceled,
		PaymentStatus:       models.PaymentStatusRefunded,
		UnlessPaymentStatus: []models.PaymentStatus{models.PaymentStatusRefunded},
	}
}

// amountMismatch compares the captured amount with the stored total.
func amountMismatch(b *models.Booking, obs Observation) string {
	if obs.AmountCents == b.TotalCostCents && strings.EqualFold(obs.Currency, b.Currency) {
		return ""
	}
	return fmt.Sprintf("amount mismatch: received %d %s, expected %d %s",
		obs.AmountCents, strings.ToLower(obs.Currency), b.TotalCostCents, b.Currency)
}

func (m *StateMachine) ensureInvoice(ctx context.Context, b *models.Booking) (*models.Invoice, error) {
	inv, created, err := m.Invoices.Ensure(ctx, &models.Invoice{
		InvoiceID:       uuid.New().String(),
		PaymentIntentID: b.PaymentIntentID,
		BookingID:       b.ID,
		UserID:          b.UserID,
		AmountCents:     b.TotalCostCents,
		Currency:        b.Currency,
		Status:          string(models.PaymentStatusPaid),
		CreatedAt:       m.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure invoice: %w", err)
	}
	if created {
		m.logger().Info("invoice created", zap.String("invoiceID", inv.InvoiceID), zap.String("bookingID", b.ID))
	}
	return inv, nil
}

// notify dispatches the fact for a committed change. Errors are logged only.
func (m *StateMachine) notify(ctx context.Context, b *models.Booking, confirmed bool, log *zap.Logger) {
	if m.Notifier == nil {
		return
	}
	if !confirmed {
		err := m.Notifier.PaymentStatusChanged(ctx, models.PaymentStatusFact{
			BookingID:     b.ID,
			UserID:        b.UserID,
			BookingStatus: b.Status,
			PaymentStatus: b.PaymentStatus,
			Reason:        b.FailureReason,
			ChangedAt:     b.UpdatedAt,
		})
		if err != nil {
			log.Error("payment status notification failed", zap.Error(err))
		}
		return
	}

	var tracking []string
	pkgs, err := m.Packages.ListByBooking(ctx, b.ID)
	if err != nil {
		log.Warn("could not load tracking numbers for confirmation", zap.Error(err))
	}
	for _, p := range pkgs {
		tracking = append(tracking, p.TrackingNumber)
	}
	confirmedAt := m.now()
	if b.PaidAt != nil {
		confirmedAt = *b.PaidAt
	}
	err = m.Notifier.BookingConfirmed(ctx, models.BookingConfirmedFact{
		BookingID:       b.ID,
		UserID:          b.UserID,
		Destination:     b.Destination,
		ScheduledDate:   b.ScheduledDate,
		TimeSlot:        b.TimeSlot,
		TrackingNumbers: tracking,
		AmountCents:     b.TotalCostCents,
		Currency:        b.Currency,
		PaymentIntentID: b.PaymentIntentID,
		ConfirmedAt:     confirmedAt,
	})
	if err != nil {
		log.Error("booking confirmation notification failed", zap.Error(err))
	}
}
