package cron

import (
	"context"
	"time"

	"shipbook/database/repository"
	"shipbook/models"
	"shipbook/services/payment"
	"shipbook/services/tasks"

	"go.uber.org/zap"
)

const defaultBatchSize = 100

type eventRetrier interface {
	Retry(ctx context.Context, eventID string) (payment.Outcome, error)
}

type pendingReconciler interface {
	ReconcileSystem(ctx context.Context, bookingID string) (*models.ReconcileResponse, error)
}

// PaymentJobs owns the retry of failed webhook events and the pull-based
// settlement of bookings whose events never arrived.
type PaymentJobs struct {
	Ledger     repository.WebhookEventRepository
	Bookings   repository.BookingRepository
	Processor  eventRetrier
	Reconciler pendingReconciler
	Logger     *zap.Logger
	Now        func() time.Time
}

// JobReport counts what one run did.
type JobReport struct {
	Scanned   int
	Succeeded int
	Failed    int
}

func (j *PaymentJobs) now() time.Time {
	if j.Now != nil {
		return j.Now().UTC()
	}
	return time.Now().UTC()
}

func (j *PaymentJobs) logger() *zap.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return zap.NewNop()
}

// SweepEvents replays unprocessed ledger entries older than the grace
// period. Individual failures stay in the ledger with attempts incremented.
func (j *PaymentJobs) SweepEvents(ctx context.Context, p tasks.SweepPayload) (JobReport, error) {
	events, err := j.Ledger.ListUnprocessed(ctx, j.now().Add(-p.GracePeriod), p.MaxAttempts, batch(p.Limit))
	if err != nil {
		return JobReport{}, err
	}

	report := JobReport{Scanned: len(events)}
	for _, e := range events {
		if ctx.Err() != nil {
			break
		}
		outcome, err := j.Processor.Retry(ctx, e.EventID)
		if err != nil {
			report.Failed++
			j.logger().Warn("sweep: event still failing",
				zap.String("eventID", e.EventID), zap.Int("attempts", e.Attempts+1), zap.Error(err))
			continue
		}
		report.Succeeded++
		j.logger().Info("sweep: event processed", zap.String("eventID", e.EventID), zap.String("outcome", string(outcome)))
	}
	return report, nil
}

// ReconcilePending pulls provider state for bookings that still await
// payment after the grace period.
func (j *PaymentJobs) ReconcilePending(ctx context.Context, p tasks.ReconcilePayload) (JobReport, error) {
	bookings, err := j.Bookings.ListAwaitingPayment(ctx, j.now().Add(-p.GracePeriod), batch(p.Limit))
	if err != nil {
		return JobReport{}, err
	}

	report := JobReport{Scanned: len(bookings)}
	for _, b := range bookings {
		if ctx.Err() != nil {
			break
		}
		resp, err := j.Reconciler.ReconcileSystem(ctx, b.ID)
		if err != nil {
			report.Failed++
			j.logger().Warn("reconcile: booking not synced", zap.String("bookingID", b.ID), zap.Error(err))
			continue
		}
		report.Succeeded++
		if resp.Synced {
			j.logger().Info("reconcile: booking confirmed", zap.String("bookingID", b.ID))
		}
	}
	return report, nil
}

func batch(limit int) int {
	if limit <= 0 {
		return defaultBatchSize
	}
	return limit
}
