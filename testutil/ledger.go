package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"shipbook/database"
	"shipbook/models"
)

// WebhookEvents is an in-memory WebhookEventRepository.
type WebhookEvents struct {
	mu   sync.Mutex
	data map[string]models.WebhookEvent
}

func NewWebhookEvents() *WebhookEvents {
	return &WebhookEvents{data: map[string]models.WebhookEvent{}}
}

func (r *WebhookEvents) Record(_ context.Context, event models.PaymentEvent, receivedAt time.Time) (*models.WebhookEvent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[event.EventID]; ok {
		return &existing, false, nil
	}
	entry := models.WebhookEvent{
		EventID:    event.EventID,
		EventType:  event.EventType,
		Payload:    event,
		ReceivedAt: receivedAt,
		UpdatedAt:  receivedAt,
	}
	r.data[event.EventID] = entry
	return &entry, true, nil
}

func (r *WebhookEvents) Get(_ context.Context, eventID string) (*models.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.data[eventID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &entry, nil
}

func (r *WebhookEvents) MarkProcessed(_ context.Context, eventID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.data[eventID]
	entry.Processed = true
	entry.ProcessedAt = &at
	entry.Error = ""
	entry.Attempts++
	entry.UpdatedAt = at
	r.data[eventID] = entry
	return nil
}

func (r *WebhookEvents) MarkFailed(_ context.Context, eventID, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.data[eventID]
	if !ok || entry.Processed {
		return nil
	}
	entry.Error = reason
	entry.Attempts++
	entry.UpdatedAt = at
	r.data[eventID] = entry
	return nil
}

func (r *WebhookEvents) List(_ context.Context, filter models.WebhookEventFilter, page models.Page) ([]models.WebhookEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.WebhookEvent
	for _, e := range r.data {
		if filter.Processed == nil || e.Processed == *filter.Processed {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ReceivedAt.After(all[j].ReceivedAt) })

	page = page.Normalize()
	start := min(int(page.Skip()), len(all))
	end := min(start+page.PageSize, len(all))
	return append([]models.WebhookEvent{}, all[start:end]...), int64(len(all)), nil
}

func (r *WebhookEvents) ListUnprocessed(_ context.Context, olderThan time.Time, maxAttempts, limit int) ([]models.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WebhookEvent
	for _, e := range r.data {
		if !e.Processed && e.ReceivedAt.Before(olderThan) && e.Attempts < maxAttempts {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Invoices is an in-memory InvoiceRepository keyed by payment intent.
type Invoices struct {
	mu   sync.Mutex
	data map[string]models.Invoice
}

func NewInvoices() *Invoices {
	return &Invoices{data: map[string]models.Invoice{}}
}

func (r *Invoices) Ensure(_ context.Context, inv *models.Invoice) (*models.Invoice, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[inv.PaymentIntentID]; ok {
		return &existing, false, nil
	}
	r.data[inv.PaymentIntentID] = *inv
	return inv, true, nil
}

func (r *Invoices) GetByPaymentIntentID(_ context.Context, intentID string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.data[intentID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &inv, nil
}

// ForBooking returns every invoice referencing bookingID.
func (r *Invoices) ForBooking(bookingID string) []models.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Invoice
	for _, inv := range r.data {
		if inv.BookingID == bookingID {
			out = append(out, inv)
		}
	}
	return out
}
