// Package testutil provides in-memory repositories with failure injection.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"shipbook/database"
	"shipbook/models"
)

// Bookings is an in-memory BookingRepository.
type Bookings struct {
	mu   sync.Mutex
	data map[string]models.Booking

	CreateErr error
	DeleteErr func(attempt int) error
	deletes   int
}

func NewBookings() *Bookings {
	return &Bookings{data: map[string]models.Booking{}}
}

func (r *Bookings) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if _, ok := r.data[b.ID]; ok {
		return database.ErrDuplicateKey
	}
	r.data[b.ID] = *b
	return nil
}

func (r *Bookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &b, nil
}

func (r *Bookings) GetByPaymentIntentID(_ context.Context, intentID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.data {
		if b.PaymentIntentID == intentID {
			return &b, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *Bookings) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if r.DeleteErr != nil {
		if err := r.DeleteErr(r.deletes); err != nil {
			return err
		}
	}
	delete(r.data, id)
	return nil
}

func (r *Bookings) ListByUser(_ context.Context, userID string, page models.Page) ([]models.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.Booking
	for _, b := range r.data {
		if userID == "" || b.UserID == userID {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	page = page.Normalize()
	start := min(int(page.Skip()), len(all))
	end := min(start+page.PageSize, len(all))
	return append([]models.Booking{}, all[start:end]...), int64(len(all)), nil
}

func (r *Bookings) ListAwaitingPayment(_ context.Context, olderThan time.Time, limit int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.data {
		if b.Status != models.BookingStatusPendingPayment || b.PaymentIntentID == "" {
			continue
		}
		if b.PaymentStatus != models.PaymentStatusPending && b.PaymentStatus != models.PaymentStatusProcessing {
			continue
		}
		if b.UpdatedAt.Before(olderThan) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Bookings) ApplyPaymentState(_ context.Context, id string, change models.PaymentStateChange) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok || slices.Contains(change.UnlessPaymentStatus, b.PaymentStatus) {
		return false, nil
	}
	b.Status = change.Status
	b.PaymentStatus = change.PaymentStatus
	b.FailureReason = change.FailureReason
	if change.PaymentIntentID != "" {
		b.PaymentIntentID = change.PaymentIntentID
	}
	if change.PaidAt != nil {
		at := change.PaidAt.UTC()
		b.PaidAt = &at
	}
	b.UpdatedAt = time.Now().UTC()
	r.data[id] = b
	return true, nil
}

// Put stores b directly, bypassing failure injection.
func (r *Bookings) Put(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[b.ID] = b
}

func (r *Bookings) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Packages is an in-memory PackageRepository with a unique tracking number
// constraint.
type Packages struct {
	mu      sync.Mutex
	data    map[string]models.Package
	order   []string
	creates int

	// CreateErr is consulted before every insert with the 1-based call
	// number; a non-nil result fails that insert.
	CreateErr func(call int) error
	DeleteErr func(id string) error
	Created   []string
	Deleted   []string
}

func NewPackages() *Packages {
	return &Packages{data: map[string]models.Package{}}
}

func (r *Packages) Create(_ context.Context, p *models.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.CreateErr != nil {
		if err := r.CreateErr(r.creates); err != nil {
			return err
		}
	}
	for _, existing := range r.data {
		if existing.TrackingNumber == p.TrackingNumber {
			return fmt.Errorf("tracking_number %s: %w", p.TrackingNumber, database.ErrDuplicateKey)
		}
	}
	r.data[p.ID] = *p
	r.order = append(r.order, p.ID)
	r.Created = append(r.Created, p.ID)
	return nil
}

func (r *Packages) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		if err := r.DeleteErr(id); err != nil {
			return err
		}
	}
	delete(r.data, id)
	r.Deleted = append(r.Deleted, id)
	return nil
}

func (r *Packages) ListByBooking(_ context.Context, bookingID string) ([]models.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Package{}
	for _, id := range r.order {
		if p, ok := r.data[id]; ok && p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Put stores p directly, bypassing failure injection.
func (r *Packages) Put(p models.Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	r.order = append(r.order, p.ID)
}

func (r *Packages) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Recipients is an in-memory RecipientRepository.
type Recipients struct {
	mu   sync.Mutex
	data map[string]models.Recipient

	CreateErr error
}

func NewRecipients() *Recipients {
	return &Recipients{data: map[string]models.Recipient{}}
}

func (r *Recipients) Create(_ context.Context, rec *models.Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.data[rec.ID] = *rec
	return nil
}

func (r *Recipients) GetByID(_ context.Context, id string) (*models.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &rec, nil
}

func (r *Recipients) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

func (r *Recipients) Put(rec models.Recipient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.ID] = rec
}

func (r *Recipients) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}
