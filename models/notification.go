package models

import "time"

// BookingConfirmedFact is dispatched after a booking transitions to
// confirmed/paid. It carries only committed data.
type BookingConfirmedFact struct {
	BookingID       string    `json:"bookingId"`
	UserID          string    `json:"userId"`
	Destination     string    `json:"destination"`
	ScheduledDate   string    `json:"scheduledDate"`
	TimeSlot        string    `json:"timeSlot,omitempty"`
	TrackingNumbers []string  `json:"trackingNumbers"`
	AmountCents     int64     `json:"amount"`
	Currency        string    `json:"currency"`
	PaymentIntentID string    `json:"paymentIntentId"`
	ConfirmedAt     time.Time `json:"confirmedAt"`
}

// PaymentStatusFact is dispatched on any other payment state change.
type PaymentStatusFact struct {
	BookingID     string        `json:"bookingId"`
	UserID        string        `json:"userId"`
	BookingStatus BookingStatus `json:"bookingStatus"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Reason        string        `json:"reason,omitempty"`
	ChangedAt     time.Time     `json:"changedAt"`
}
