package payment

import (
	"context"
	"sync"
	"time"

	"shipbook/models"
	"shipbook/testutil"
)

var testNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

var (
	owner    = models.Identity{UserID: "user-1", Role: models.RoleCustomer}
	stranger = models.Identity{UserID: "user-2", Role: models.RoleCustomer}
	operator = models.Identity{UserID: "ops-1", Role: models.RoleOperator}
)

type fakeProvider struct {
	mu      sync.Mutex
	intents map[string]models.PaymentIntentState
	created []IntentParams
	refunds []string
	err     error
	nextID  string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{intents: map[string]models.PaymentIntentState{}, nextID: "pi_new"}
}

func (p *fakeProvider) CreatePaymentIntent(_ context.Context, params IntentParams) (*models.PaymentIntentState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.created = append(p.created, params)
	state := models.PaymentIntentState{
		ID:           p.nextID,
		Outcome:      models.OutcomeRequiresAction,
		AmountCents:  params.AmountCents,
		Currency:     params.Currency,
		Metadata:     map[string]string{MetadataBookingID: params.BookingID},
		ClientSecret: p.nextID + "_secret",
	}
	p.intents[state.ID] = state
	return &state, nil
}

func (p *fakeProvider) RetrievePaymentIntent(_ context.Context, id string) (*models.PaymentIntentState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	state, ok := p.intents[id]
	if !ok {
		return nil, ErrNoPaymentIntent
	}
	return &state, nil
}

func (p *fakeProvider) Refund(_ context.Context, intentID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.refunds = append(p.refunds, intentID)
	return nil
}

func (p *fakeProvider) set(state models.PaymentIntentState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents[state.ID] = state
}

type fixture struct {
	bookings   *testutil.Bookings
	packages   *testutil.Packages
	invoices   *testutil.Invoices
	ledger     *testutil.WebhookEvents
	notifier   *testutil.Notifier
	provider   *fakeProvider
	machine    *StateMachine
	processor  *Processor
	reconciler *Reconciler
	payments   *Payments
}

func newFixture() *fixture {
	f := &fixture{
		bookings: testutil.NewBookings(),
		packages: testutil.NewPackages(),
		invoices: testutil.NewInvoices(),
		ledger:   testutil.NewWebhookEvents(),
		notifier: &testutil.Notifier{},
		provider: newFakeProvider(),
	}
	f.machine = &StateMachine{
		Bookings: f.bookings,
		Packages: f.packages,
		Invoices: f.invoices,
		Notifier: f.notifier,
		Now:      func() time.Time { return testNow },
	}
	f.processor = &Processor{
		Ledger:   f.ledger,
		Bookings: f.bookings,
		Machine:  f.machine,
		Now:      func() time.Time { return testNow },
	}
	f.reconciler = &Reconciler{Bookings: f.bookings, Provider: f.provider, Machine: f.machine}
	f.payments = &Payments{Bookings: f.bookings, Provider: f.provider}
	return f
}

// seedBooking stores an unpaid 260.00 USD booking with two packages,
// attached to intent pi_1.
func (f *fixture) seedBooking(id string) models.Booking {
	b := models.Booking{
		ID:              id,
		UserID:          owner.UserID,
		Destination:     "JM",
		ScheduledDate:   "2026-03-04",
		PackageCount:    2,
		TotalCostCents:  26000,
		Currency:        "usd",
		Status:          models.BookingStatusPendingPayment,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentIntentID: "pi_1",
		CreatedAt:       testNow.Add(-time.Hour),
		UpdatedAt:       testNow.Add(-time.Hour),
	}
	f.bookings.Put(b)
	f.packages.Put(models.Package{ID: id + "-p1", BookingID: id, TrackingNumber: "SB0000000001"})
	f.packages.Put(models.Package{ID: id + "-p2", BookingID: id, TrackingNumber: "SB0000000002"})
	return b
}

func (f *fixture) booking(id string) *models.Booking {
	b, err := f.bookings.GetByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return b
}

func succeeded(eventID, bookingID string, amount int64) models.PaymentEvent {
	return models.PaymentEvent{
		EventID:         eventID,
		EventType:       EventIntentSucceeded,
		Outcome:         models.OutcomeSucceeded,
		PaymentIntentID: "pi_1",
		AmountCents:     amount,
		Currency:        "usd",
		BookingID:       bookingID,
	}
}

func intent(id, bookingID string, outcome models.PaymentOutcome, amount int64) models.PaymentIntentState {
	return models.PaymentIntentState{
		ID:          id,
		Outcome:     outcome,
		AmountCents: amount,
		Currency:    "usd",
		Metadata:    map[string]string{MetadataBookingID: bookingID},
	}
}
