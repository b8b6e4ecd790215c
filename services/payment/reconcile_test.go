package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipbook/models"
)

func TestReconcileConfirmsPaidIntent(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	f.provider.set(intent("pi_1", "b1", models.OutcomeSucceeded, 26000))

	resp, err := f.reconciler.Reconcile(context.Background(), owner, models.ReconcileRequest{BookingID: "b1"})
	require.NoError(t, err)
	assert.True(t, resp.Synced)
	assert.Equal(t, "pi_1", resp.PaymentIntentID)
	assert.Equal(t, models.BookingStatusConfirmed, resp.BookingStatus)
	assert.Equal(t, models.PaymentStatusPaid, resp.PaymentStatus)
	assert.Len(t, f.invoices.ForBooking("b1"), 1)
	assert.Equal(t, 1, f.notifier.ConfirmedCount())

	again, err := f.reconciler.Reconcile(context.Background(), owner, models.ReconcileRequest{BookingID: "b1"})
	require.NoError(t, err)
	assert.True(t, again.Synced)
	assert.Len(t, f.invoices.ForBooking("b1"), 1)
	assert.Equal(t, 1, f.notifier.ConfirmedCount())
}

func TestReconcileReportsUnsyncedStates(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	f.provider.set(intent("pi_1", "b1", models.OutcomeProcessing, 26000))

	resp, err := f.reconciler.Reconcile(context.Background(), owner, models.ReconcileRequest{BookingID: "b1"})
	require.NoError(t, err)
	assert.False(t, resp.Synced)
	assert.Equal(t, models.PaymentStatusProcessing, resp.PaymentStatus)
}

func TestReconcileRejectsMetadataMismatch(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	f.provider.set(intent("pi_other", "b2", models.OutcomeSucceeded, 26000))

	_, err := f.reconciler.Reconcile(context.Background(), owner, models.ReconcileRequest{
		BookingID:       "b1",
		PaymentIntentID: "pi_other",
	})
	assert.ErrorIs(t, err, ErrBookingMetadataMismatch)

	b := f.booking("b1")
	assert.Equal(t, models.BookingStatusPendingPayment, b.Status)
	assert.Equal(t, models.PaymentStatusPending, b.PaymentStatus)
	assert.Equal(t, "pi_1", b.PaymentIntentID)
	assert.Empty(t, f.invoices.ForBooking("b1"))
}

func TestReconcileFailsBookingWhenOwnIntentIsMistagged(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	f.provider.set(intent("pi_1", "b2", models.OutcomeSucceeded, 26000))

	_, err := f.reconciler.ReconcileSystem(context.Background(), "b1")
	assert.ErrorIs(t, err, ErrBookingMetadataMismatch)

	b := f.booking("b1")
	assert.Equal(t, models.BookingStatusPaymentFailed, b.Status)
	assert.Equal(t, models.PaymentStatusFailed, b.PaymentStatus)
	assert.Contains(t, b.FailureReason, "booking metadata mismatch")
	assert.Empty(t, f.invoices.ForBooking("b1"))
}

func TestReconcileMistaggedIntentKeepsPaidBooking(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	_, err := f.processor.HandleEvent(context.Background(), succeeded("evt_1", "b1", 26000))
	require.NoError(t, err)
	f.provider.set(intent("pi_1", "b2", models.OutcomeSucceeded, 26000))

	_, err = f.reconciler.ReconcileSystem(context.Background(), "b1")
	assert.ErrorIs(t, err, ErrBookingMetadataMismatch)
	assert.True(t, f.booking("b1").IsPaid())
}

func TestReconcileAuthorization(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	f.provider.set(intent("pi_1", "b1", models.OutcomeRequiresAction, 26000))

	_, err := f.reconciler.Reconcile(context.Background(), stranger, models.ReconcileRequest{BookingID: "b1"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.reconciler.Reconcile(context.Background(), operator, models.ReconcileRequest{BookingID: "b1"})
	assert.NoError(t, err)

	_, err = f.reconciler.Reconcile(context.Background(), owner, models.ReconcileRequest{BookingID: "nope"})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestReconcileWithoutIntent(t *testing.T) {
	f := newFixture()
	b := f.seedBooking("b1")
	b.PaymentIntentID = ""
	f.bookings.Put(b)

	_, err := f.reconciler.ReconcileSystem(context.Background(), "b1")
	assert.ErrorIs(t, err, ErrNoPaymentIntent)
}

func TestReconcileSurfacesProviderFailure(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	f.provider.err = errors.New("stripe: 503")

	_, err := f.reconciler.ReconcileSystem(context.Background(), "b1")
	assert.ErrorContains(t, err, "stripe: 503")
	assert.Equal(t, models.PaymentStatusPending, f.booking("b1").PaymentStatus)
}

func TestAmountMismatchFailsInEitherOrder(t *testing.T) {
	orders := map[string][]string{
		"webhook then reconcile": {"webhook", "reconcile"},
		"reconcile then webhook": {"reconcile", "webhook"},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.seedBooking("b1")
			f.provider.set(intent("pi_1", "b1", models.OutcomeSucceeded, 24000))

			for _, path := range order {
				switch path {
				case "webhook":
					_, err := f.processor.HandleEvent(context.Background(), succeeded("evt_1", "b1", 24000))
					require.NoError(t, err)
				case "reconcile":
					resp, err := f.reconciler.ReconcileSystem(context.Background(), "b1")
					require.NoError(t, err)
					assert.False(t, resp.Synced)
				}
			}

			b := f.booking("b1")
			assert.Equal(t, models.BookingStatusPaymentFailed, b.Status)
			assert.Equal(t, models.PaymentStatusFailed, b.PaymentStatus)
			assert.Empty(t, f.invoices.ForBooking("b1"))
		})
	}
}

func TestConcurrentWebhookAndReconcileConverge(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	f.provider.set(intent("pi_1", "b1", models.OutcomeSucceeded, 26000))

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := f.processor.HandleEvent(context.Background(), succeeded(fmt.Sprintf("evt_%d", i%3), "b1", 26000))
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_, err := f.reconciler.ReconcileSystem(context.Background(), "b1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	b := f.booking("b1")
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentStatusPaid, b.PaymentStatus)
	assert.Len(t, f.invoices.ForBooking("b1"), 1)
	assert.Equal(t, 1, f.notifier.ConfirmedCount())
}
