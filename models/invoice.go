package models

import "time"

// Invoice is the financial record of a successful payment. There is at most
// one invoice per payment intent.
type Invoice struct {
	InvoiceID       string    `bson:"invoice_id" json:"invoice_id"`
	PaymentIntentID string    `bson:"payment_intent_id" json:"payment_intent_id"`
	BookingID       string    `bson:"booking_id" json:"booking_id"`
	UserID          string    `bson:"user_id" json:"user_id"`
	AmountCents     int64     `bson:"amount_cents" json:"amount_cents"`
	Currency        string    `bson:"currency" json:"currency"`
	Status          string    `bson:"status" json:"status"` // "paid"
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
