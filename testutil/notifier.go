package testutil

import (
	"context"
	"sync"

	"shipbook/models"
)

// Notifier records dispatched facts.
type Notifier struct {
	mu        sync.Mutex
	Confirmed []models.BookingConfirmedFact
	Changed   []models.PaymentStatusFact
	Err       error
}

func (n *Notifier) BookingConfirmed(_ context.Context, fact models.BookingConfirmedFact) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Confirmed = append(n.Confirmed, fact)
	return n.Err
}

func (n *Notifier) PaymentStatusChanged(_ context.Context, fact models.PaymentStatusFact) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Changed = append(n.Changed, fact)
	return n.Err
}

func (n *Notifier) ConfirmedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Confirmed)
}
