package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipbook/database"
	"shipbook/database/repository"
	"shipbook/models"

	"go.uber.org/zap"
)

// Outcome summarizes what HandleEvent did with an event.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeNoop      Outcome = "no_op"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
)

// Processor applies provider events exactly once per event id. Every event
// is recorded in the ledger before it is applied, so a failure leaves an
// unprocessed entry for the sweep to retry.
type Processor struct {
	Ledger   repository.WebhookEventRepository
	Bookings repository.BookingRepository
	Machine  *StateMachine
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewProcessor(ledger repository.WebhookEventRepository, bookings repository.BookingRepository, machine *StateMachine, logger *zap.Logger) *Processor {
	return &Processor{
		Ledger:   ledger,
		Bookings: bookings,
		Machine:  machine,
		Logger:   logger,
		Now:      time.Now,
	}
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Processor) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}

// HandleEvent records event on first sight and applies it unless the ledger
// already marks it processed.
func (p *Processor) HandleEvent(ctx context.Context, event models.PaymentEvent) (Outcome, error) {
	if event.EventID == "" {
		return OutcomeFailed, errors.New("payment event has no id")
	}
	entry, created, err := p.Ledger.Record(ctx, event, p.now())
	if err != nil {
		return OutcomeFailed, fmt.Errorf("record event %s: %w", event.EventID, err)
	}
	if entry.Processed {
		p.logger().Debug("duplicate payment event", zap.String("eventID", event.EventID))
		return OutcomeDuplicate, nil
	}
	if !created {
		p.logger().Info("redelivery of unprocessed payment event",
			zap.String("eventID", event.EventID), zap.Int("attempts", entry.Attempts))
	}
	return p.process(ctx, event)
}

// Retry replays a stored, unprocessed ledger entry.
func (p *Processor) Retry(ctx context.Context, eventID string) (Outcome, error) {
	entry, err := p.Ledger.Get(ctx, eventID)
	if errors.Is(err, database.ErrNotFound) {
		return OutcomeFailed, ErrEventNotFound
	}
	if err != nil {
		return OutcomeFailed, err
	}
	if entry.Processed {
		return OutcomeDuplicate, nil
	}
	return p.process(ctx, entry.Payload)
}

// ListEvents pages through the ledger.
func (p *Processor) ListEvents(ctx context.Context, filter models.WebhookEventFilter, page models.Page) (*models.WebhookEventList, error) {
	page = page.Normalize()
	events, total, err := p.Ledger.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &models.WebhookEventList{
		Events:   events,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

func (p *Processor) process(ctx context.Context, event models.PaymentEvent) (Outcome, error) {
	log := p.logger().With(
		zap.String("eventID", event.EventID),
		zap.String("eventType", event.EventType))

	if event.Outcome == models.OutcomeIgnored || event.Outcome == "" {
		if err := p.Ledger.MarkProcessed(ctx, event.EventID, p.now()); err != nil {
			return OutcomeFailed, err
		}
		log.Debug("payment event ignored")
		return OutcomeIgnored, nil
	}

	tr, err := p.apply(ctx, event)
	if err != nil {
		log.Error("payment event processing failed", zap.Error(err))
		if markErr := p.Ledger.MarkFailed(ctx, event.EventID, err.Error(), p.now()); markErr != nil {
			log.Error("could not record event failure", zap.Error(markErr))
		}
		return OutcomeFailed, err
	}

	if err := p.Ledger.MarkProcessed(ctx, event.EventID, p.now()); err != nil {
		// The transition is committed and idempotent; the sweep will replay
		// the entry and find nothing left to do.
		log.Error("could not mark event processed", zap.Error(err))
		return OutcomeFailed, err
	}
	if tr.Applied {
		return OutcomeApplied, nil
	}
	return OutcomeNoop, nil
}

func (p *Processor) apply(ctx context.Context, event models.PaymentEvent) (*Transition, error) {
	booking, err := p.resolveBooking(ctx, event)
	if err != nil {
		return nil, err
	}
	return p.Machine.Apply(ctx, booking, Observation{
		Source:          SourceWebhook,
		Outcome:         event.Outcome,
		PaymentIntentID: event.PaymentIntentID,
		AmountCents:     event.AmountCents,
		Currency:        event.Currency,
		FailureMessage:  event.FailureMessage,
	})
}

// resolveBooking loads the booking named in intent metadata. The intent id
// is only a fallback for events without metadata; an intent that belongs to a
// different booking than its metadata claims is an integrity conflict.
func (p *Processor) resolveBooking(ctx context.Context, event models.PaymentEvent) (*models.Booking, error) {
	if event.BookingID != "" {
		b, err := p.Bookings.GetByID(ctx, event.BookingID)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
	}
	if event.PaymentIntentID != "" {
		b, err := p.Bookings.GetByPaymentIntentID(ctx, event.PaymentIntentID)
		switch {
		case err == nil && event.BookingID != "" && b.ID != event.BookingID:
			return nil, fmt.Errorf("%w: intent %s belongs to booking %s, metadata names %s",
				ErrBookingMetadataMismatch, event.PaymentIntentID, b.ID, event.BookingID)
		case err == nil:
			return b, nil
		case !errors.Is(err, database.ErrNotFound):
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: booking %q / intent %q", ErrBookingNotFound, event.BookingID, event.PaymentIntentID)
}
