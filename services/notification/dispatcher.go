package notification

import (
	"context"
	"errors"

	"shipbook/models"
)

// Dispatcher delivers booking facts to customers. Delivery is best effort:
// callers log errors and never roll back state because of them.
type Dispatcher interface {
	BookingConfirmed(ctx context.Context, fact models.BookingConfirmedFact) error
	PaymentStatusChanged(ctx context.Context, fact models.PaymentStatusFact) error
}

// Fanout sends each fact to every dispatcher and joins their errors.
type Fanout []Dispatcher

func (f Fanout) BookingConfirmed(ctx context.Context, fact models.BookingConfirmedFact) error {
	var errs []error
	for _, d := range f {
		errs = append(errs, d.BookingConfirmed(ctx, fact))
	}
	return errors.Join(errs...)
}

func (f Fanout) PaymentStatusChanged(ctx context.Context, fact models.PaymentStatusFact) error {
	var errs []error
	for _, d := range f {
		errs = append(errs, d.PaymentStatusChanged(ctx, fact))
	}
	return errors.Join(errs...)
}
