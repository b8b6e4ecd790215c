package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipbook/models"
)

func TestHandleEventConfirmsBooking(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")

	outcome, err := f.processor.HandleEvent(context.Background(), succeeded("evt_1", "b1", 26000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	b := f.booking("b1")
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentStatusPaid, b.PaymentStatus)
	require.NotNil(t, b.PaidAt)
	assert.Equal(t, testNow, *b.PaidAt)

	invoices := f.invoices.ForBooking("b1")
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(26000), invoices[0].AmountCents)
	assert.Equal(t, "pi_1", invoices[0].PaymentIntentID)

	require.Len(t, f.notifier.Confirmed, 1)
	fact := f.notifier.Confirmed[0]
	assert.Equal(t, []string{"SB0000000001", "SB0000000002"}, fact.TrackingNumbers)
	assert.Equal(t, "JM", fact.Destination)
	assert.Equal(t, int64(26000), fact.AmountCents)

	entry, err := f.ledger.Get(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, entry.Processed)
	assert.Equal(t, 1, entry.Attempts)
}

func TestHandleEventDeduplicatesByEventID(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	event := succeeded("evt_1", "b1", 26000)

	first, err := f.processor.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	second, err := f.processor.HandleEvent(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, first)
	assert.Equal(t, OutcomeDuplicate, second)
	assert.Len(t, f.invoices.ForBooking("b1"), 1)
	assert.Equal(t, 1, f.notifier.ConfirmedCount())
}

func TestHandleEventResolvesBookingByIntent(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	event := succeeded("evt_1", "", 26000)

	outcome, err := f.processor.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, f.booking("b1").IsPaid())
}

func TestHandleEventRejectsIntentTaggedForAnotherBooking(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")

	outcome, err := f.processor.HandleEvent(context.Background(), succeeded("evt_x", "some-other-booking", 26000))
	assert.ErrorIs(t, err, ErrBookingMetadataMismatch)
	assert.Equal(t, OutcomeFailed, outcome)

	b := f.booking("b1")
	assert.Equal(t, models.PaymentStatusPending, b.PaymentStatus)
	assert.Empty(t, f.invoices.ForBooking("b1"))

	entry, err := f.ledger.Get(context.Background(), "evt_x")
	require.NoError(t, err)
	assert.False(t, entry.Processed)
	assert.Contains(t, entry.Error, "BookingMetadataMismatch")
}

func TestHandleEventUnknownBookingAndIntent(t *testing.T) {
	f := newFixture()
	event := succeeded("evt_y", "ghost", 26000)
	event.PaymentIntentID = "pi_ghost"

	_, err := f.processor.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestAmountMismatchFailsPaymentUntilCorrectEventArrives(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	short := succeeded("evt_short", "b1", 24000)

	outcome, err := f.processor.HandleEvent(context.Background(), short)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	b := f.booking("b1")
	assert.Equal(t, models.BookingStatusPaymentFailed, b.Status)
	assert.Equal(t, models.PaymentStatusFailed, b.PaymentStatus)
	assert.Contains(t, b.FailureReason, "amount mismatch")
	assert.Nil(t, b.PaidAt)
	assert.Empty(t, f.invoices.ForBooking("b1"))
	assert.Zero(t, f.notifier.ConfirmedCount())
	require.Len(t, f.notifier.Changed, 1)
	assert.Equal(t, models.PaymentStatusFailed, f.notifier.Changed[0].PaymentStatus)

	outcome, err = f.processor.HandleEvent(context.Background(), short)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, models.PaymentStatusFailed, f.booking("b1").PaymentStatus)

	outcome, err = f.processor.HandleEvent(context.Background(), succeeded("evt_full", "b1", 26000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	b = f.booking("b1")
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentStatusPaid, b.PaymentStatus)
	assert.Empty(t, b.FailureReason)
	assert.Len(t, f.invoices.ForBooking("b1"), 1)
}

func TestCurrencyMismatchIsAnAmountMismatch(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	event := succeeded("evt_1", "b1", 26000)
	event.Currency = "jmd"

	_, err := f.processor.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, f.booking("b1").PaymentStatus)
	assert.Empty(t, f.invoices.ForBooking("b1"))
}

func TestUnknownBookingLeavesEventForRetry(t *testing.T) {
	f := newFixture()
	event := succeeded("evt_1", "b1", 26000)

	outcome, err := f.processor.HandleEvent(context.Background(), event)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	entry, err := f.ledger.Get(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, entry.Processed)
	assert.Equal(t, 1, entry.Attempts)
	assert.NotEmpty(t, entry.Error)

	f.seedBooking("b1")
	outcome, err = f.processor.Retry(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, f.booking("b1").IsPaid())

	entry, err = f.ledger.Get(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, entry.Processed)
	assert.Empty(t, entry.Error)

	outcome, err = f.processor.Retry(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	_, err = f.processor.Retry(context.Background(), "evt_missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRedeliveryOfFailedEventIsReprocessed(t *testing.T) {
	f := newFixture()
	event := succeeded("evt_1", "b1", 26000)
	_, err := f.processor.HandleEvent(context.Background(), event)
	require.Error(t, err)

	f.seedBooking("b1")
	outcome, err := f.processor.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
}

func TestUnsupportedEventIsRecordedAndIgnored(t *testing.T) {
	f := newFixture()
	event := models.PaymentEvent{EventID: "evt_cust", EventType: "customer.created", Outcome: models.OutcomeIgnored}

	outcome, err := f.processor.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	entry, err := f.ledger.Get(context.Background(), "evt_cust")
	require.NoError(t, err)
	assert.True(t, entry.Processed)
}

func TestPaidBookingOnlyAcceptsDisputeAndRefund(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	ctx := context.Background()

	_, err := f.processor.HandleEvent(ctx, succeeded("evt_ok", "b1", 26000))
	require.NoError(t, err)
	paid := f.booking("b1")

	for _, late := range []models.PaymentOutcome{models.OutcomeFailed, models.OutcomeCanceled, models.OutcomeProcessing, models.OutcomeRequiresAction} {
		outcome, err := f.processor.HandleEvent(ctx, models.PaymentEvent{
			EventID:         "evt_" + string(late),
			Outcome:         late,
			PaymentIntentID: "pi_1",
			BookingID:       "b1",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoop, outcome, late)
	}
	other := succeeded("evt_other", "b1", 26000)
	other.PaymentIntentID = "pi_2"
	outcome, err := f.processor.HandleEvent(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)

	b := f.booking("b1")
	assert.Equal(t, models.PaymentStatusPaid, b.PaymentStatus)
	assert.Equal(t, "pi_1", b.PaymentIntentID)
	assert.Equal(t, paid.PaidAt, b.PaidAt)

	outcome, err = f.processor.HandleEvent(ctx, models.PaymentEvent{
		EventID: "evt_dispute", Outcome: models.OutcomeDisputeCreated, PaymentIntentID: "pi_1",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	b = f.booking("b1")
	assert.Equal(t, models.BookingStatusUnderReview, b.Status)
	assert.Equal(t, models.PaymentStatusDisputed, b.PaymentStatus)
	assert.Equal(t, "pi_1", b.PaymentIntentID)
	assert.Equal(t, paid.PaidAt, b.PaidAt)

	outcome, err = f.processor.HandleEvent(ctx, models.PaymentEvent{
		EventID: "evt_refund", Outcome: models.OutcomeRefunded, PaymentIntentID: "pi_1",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	b = f.booking("b1")
	assert.Equal(t, models.BookingStatusCanceled, b.Status)
	assert.Equal(t, models.PaymentStatusRefunded, b.PaymentStatus)
	assert.Len(t, f.invoices.ForBooking("b1"), 1)
}

func TestEventsForSupersededIntentAreIgnored(t *testing.T) {
	f := newFixture()
	b := f.seedBooking("b1")
	b.PaymentIntentID = "pi_2"
	f.bookings.Put(b)

	outcome, err := f.processor.HandleEvent(context.Background(), models.PaymentEvent{
		EventID: "evt_old", Outcome: models.OutcomeCanceled, PaymentIntentID: "pi_1", BookingID: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Equal(t, models.PaymentStatusPending, f.booking("b1").PaymentStatus)
}

func TestIntentLifecycleTransitions(t *testing.T) {
	tests := []struct {
		outcome    models.PaymentOutcome
		wantStatus models.BookingStatus
		wantPay    models.PaymentStatus
	}{
		{models.OutcomeProcessing, models.BookingStatusPendingPayment, models.PaymentStatusProcessing},
		{models.OutcomeRequiresAction, models.BookingStatusPendingPayment, models.PaymentStatusPending},
		{models.OutcomeFailed, models.BookingStatusPaymentFailed, models.PaymentStatusFailed},
		{models.OutcomeCanceled, models.BookingStatusCanceled, models.PaymentStatusCanceled},
		{models.OutcomeDisputeCreated, models.BookingStatusUnderReview, models.PaymentStatusDisputed},
		{models.OutcomeRefunded, models.BookingStatusCanceled, models.PaymentStatusRefunded},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			f := newFixture()
			f.seedBooking("b1")
			_, err := f.processor.HandleEvent(context.Background(), models.PaymentEvent{
				EventID: "evt", Outcome: tt.outcome, PaymentIntentID: "pi_1", BookingID: "b1",
				FailureMessage: "card declined",
			})
			require.NoError(t, err)
			b := f.booking("b1")
			assert.Equal(t, tt.wantStatus, b.Status)
			assert.Equal(t, tt.wantPay, b.PaymentStatus)
			assert.Empty(t, f.invoices.ForBooking("b1"))
		})
	}
}

func TestLateInformationalEventsKeepTerminalState(t *testing.T) {
	terminal := map[string]struct {
		first      models.PaymentEvent
		wantStatus models.BookingStatus
		wantPay    models.PaymentStatus
		wantReason string
	}{
		"canceled": {
			first:      models.PaymentEvent{EventID: "evt_first", Outcome: models.OutcomeCanceled, PaymentIntentID: "pi_1", BookingID: "b1"},
			wantStatus: models.BookingStatusCanceled,
			wantPay:    models.PaymentStatusCanceled,
		},
		"amount mismatch": {
			first:      succeeded("evt_first", "b1", 24000),
			wantStatus: models.BookingStatusPaymentFailed,
			wantPay:    models.PaymentStatusFailed,
			wantReason: "amount mismatch",
		},
	}
	for name, tt := range terminal {
		for _, late := range []models.PaymentOutcome{models.OutcomeProcessing, models.OutcomeRequiresAction} {
			t.Run(name+"/"+string(late), func(t *testing.T) {
				f := newFixture()
				f.seedBooking("b1")
				_, err := f.processor.HandleEvent(context.Background(), tt.first)
				require.NoError(t, err)

				outcome, err := f.processor.HandleEvent(context.Background(), models.PaymentEvent{
					EventID: "evt_late", Outcome: late, PaymentIntentID: "pi_1", BookingID: "b1",
				})
				require.NoError(t, err)
				assert.Equal(t, OutcomeNoop, outcome)

				b := f.booking("b1")
				assert.Equal(t, tt.wantStatus, b.Status)
				assert.Equal(t, tt.wantPay, b.PaymentStatus)
				assert.Contains(t, b.FailureReason, tt.wantReason)
			})
		}
	}
}

func TestInformationalEventBeforeTerminalOutcome(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	ctx := context.Background()

	_, err := f.processor.HandleEvent(ctx, models.PaymentEvent{
		EventID: "evt_processing", Outcome: models.OutcomeProcessing, PaymentIntentID: "pi_1", BookingID: "b1",
	})
	require.NoError(t, err)
	_, err = f.processor.HandleEvent(ctx, models.PaymentEvent{
		EventID: "evt_canceled", Outcome: models.OutcomeCanceled, PaymentIntentID: "pi_1", BookingID: "b1",
	})
	require.NoError(t, err)

	b := f.booking("b1")
	assert.Equal(t, models.BookingStatusCanceled, b.Status)
	assert.Equal(t, models.PaymentStatusCanceled, b.PaymentStatus)

	// Only a refund moves a canceled booking.
	outcome, err := f.processor.HandleEvent(ctx, succeeded("evt_late_success", "b1", 26000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Equal(t, models.PaymentStatusCanceled, f.booking("b1").PaymentStatus)
	assert.Empty(t, f.invoices.ForBooking("b1"))
}

func TestSucceededRecoversFailedPayment(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	ctx := context.Background()

	_, err := f.processor.HandleEvent(ctx, models.PaymentEvent{
		EventID: "evt_failed", Outcome: models.OutcomeFailed, PaymentIntentID: "pi_1", BookingID: "b1",
		FailureMessage: "card declined",
	})
	require.NoError(t, err)
	_, err = f.processor.HandleEvent(ctx, models.PaymentEvent{
		EventID: "evt_processing", Outcome: models.OutcomeProcessing, PaymentIntentID: "pi_1", BookingID: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, f.booking("b1").PaymentStatus)

	outcome, err := f.processor.HandleEvent(ctx, succeeded("evt_ok", "b1", 26000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, f.booking("b1").IsPaid())
}

func TestNotificationFailureDoesNotUndoPayment(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	f.notifier.Err = errors.New("broker unreachable")

	outcome, err := f.processor.HandleEvent(context.Background(), succeeded("evt_1", "b1", 26000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, f.booking("b1").IsPaid())
}

func TestListEvents(t *testing.T) {
	f := newFixture()
	f.seedBooking("b1")
	_, _ = f.processor.HandleEvent(context.Background(), succeeded("evt_ok", "b1", 26000))
	orphan := succeeded("evt_orphan", "missing", 100)
	orphan.PaymentIntentID = "pi_unknown"
	_, _ = f.processor.HandleEvent(context.Background(), orphan)

	unprocessed := false
	list, err := f.processor.ListEvents(context.Background(), models.WebhookEventFilter{Processed: &unprocessed}, models.Page{})
	require.NoError(t, err)
	require.EqualValues(t, 1, list.Total)
	assert.Equal(t, "evt_orphan", list.Events[0].EventID)

	all, err := f.processor.ListEvents(context.Background(), models.WebhookEventFilter{}, models.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)
}
