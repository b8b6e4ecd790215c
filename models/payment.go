package models

// PaymentOutcome is the provider-declared result carried by an event or
// observed by reconciliation.
type PaymentOutcome string

const (
	OutcomeSucceeded      PaymentOutcome = "succeeded"
	OutcomeFailed         PaymentOutcome = "failed"
	OutcomeCanceled       PaymentOutcome = "canceled"
	OutcomeProcessing     PaymentOutcome = "processing"
	OutcomeRequiresAction PaymentOutcome = "requires_action"
	OutcomeDisputeCreated PaymentOutcome = "dispute_created"
	OutcomeRefunded       PaymentOutcome = "refunded"
	OutcomeIgnored        PaymentOutcome = "ignored"
)

// PaymentEvent is the provider-neutral form of an inbound payment event.
type PaymentEvent struct {
	EventID         string         `bson:"event_id" json:"eventId"`
	EventType       string         `bson:"event_type" json:"eventType"`
	Outcome         PaymentOutcome `bson:"outcome" json:"outcome"`
	PaymentIntentID string         `bson:"payment_intent_id" json:"paymentIntentId"`
	AmountCents     int64          `bson:"amount_cents" json:"amount"`
	Currency        string         `bson:"currency" json:"currency"`
	BookingID       string         `bson:"booking_id,omitempty" json:"bookingId,omitempty"` // metadata.booking_id
	FailureMessage  string         `bson:"failure_message,omitempty" json:"failureMessage,omitempty"`
}

// PaymentIntentState is the provider's authoritative view of one intent.
type PaymentIntentState struct {
	ID             string
	Outcome        PaymentOutcome
	AmountCents    int64
	Currency       string
	Metadata       map[string]string
	ClientSecret   string
	FailureMessage string
}

// ReconcileRequest asks for a synchronous payment-state pull.
type ReconcileRequest struct {
	BookingID       string `json:"bookingId"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
}

// ReconcileResponse reports the booking state after reconciliation. Synced
// is true only when the booking ends the call confirmed and paid. A call that
// finds the booking already confirmed and paid also reports synced.
type ReconcileResponse struct {
	BookingID       string        `json:"bookingId"`
	PaymentIntentID string        `json:"paymentIntentId"`
	BookingStatus   BookingStatus `json:"bookingStatus"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Synced          bool          `json:"synced"`
}

// PaymentIntentResponse is returned to the client to complete payment.
type PaymentIntentResponse struct {
	BookingID       string `json:"bookingId"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	AmountCents     int64  `json:"amount"`
	Currency        string `json:"currency"`
}
