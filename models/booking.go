package models

import "time"

// BookingStatus is the lifecycle state of a shipment booking.
type BookingStatus string

const (
	BookingStatusDraft          BookingStatus = "draft"
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusPaymentFailed  BookingStatus = "payment_failed"
	BookingStatusCanceled       BookingStatus = "canceled"
	BookingStatusUnderReview    BookingStatus = "under_review"
)

// PaymentStatus mirrors the payment provider's view of the booking's charge.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCanceled   PaymentStatus = "canceled"
	PaymentStatusDisputed   PaymentStatus = "disputed"
)

// ServiceLevel selects the shipping speed. Express is the premium tier.
type ServiceLevel string

const (
	ServiceLevelStandard ServiceLevel = "standard"
	ServiceLevelExpress  ServiceLevel = "express"
)

// Booking represents a shipment booking and its financial and payment state.
// Money fields are integer minor units (cents).
type Booking struct {
	ID                  string        `bson:"id" json:"id"`
	UserID              string        `bson:"user_id" json:"user_id"`
	RecipientID         string        `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
	ServiceLevel        ServiceLevel  `bson:"service_level" json:"service_level"`
	Destination         string        `bson:"destination" json:"destination"`
	ScheduledDate       string        `bson:"scheduled_date" json:"scheduled_date"` // YYYY-MM-DD
	TimeSlot            string        `bson:"time_slot,omitempty" json:"time_slot,omitempty"`
	SpecialInstructions string        `bson:"special_instructions,omitempty" json:"special_instructions,omitempty"`
	DoorToDoor          bool          `bson:"door_to_door" json:"door_to_door"`
	CustomsClearance    bool          `bson:"customs_clearance" json:"customs_clearance"`
	Insurance           bool          `bson:"insurance" json:"insurance"`
	PackageCount        int           `bson:"package_count" json:"package_count"`
	SubtotalCents       int64         `bson:"subtotal_cents" json:"subtotal_cents"`
	DiscountCents       int64         `bson:"discount_cents" json:"discount_cents"`
	SurchargeCents      int64         `bson:"surcharge_cents" json:"surcharge_cents"`
	FeesCents           int64         `bson:"fees_cents" json:"fees_cents"`
	InsuranceCostCents  int64         `bson:"insurance_cost_cents" json:"insurance_cost_cents"`
	TotalCostCents      int64         `bson:"total_cost_cents" json:"total_cost_cents"`
	Currency            string        `bson:"currency" json:"currency"`
	Status              BookingStatus `bson:"status" json:"status"`
	PaymentStatus       PaymentStatus `bson:"payment_status" json:"payment_status"`
	PaymentIntentID     string        `bson:"payment_intent_id,omitempty" json:"payment_intent_id,omitempty"`
	PaidAt              *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	FailureReason       string        `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	CreatedAt           time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `bson:"updated_at" json:"updated_at"`
}

// IsPaid reports whether the payment has been captured. Once true, the
// payment intent and paid_at are frozen.
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}

// PaymentStateChange is a conditional update of a booking's payment fields.
// It is applied only while the booking's payment_status is not in
// UnlessPaymentStatus. PaymentIntentID and PaidAt are written only when set.
type PaymentStateChange struct {
	Status              BookingStatus
	PaymentStatus       PaymentStatus
	PaymentIntentID     string
	PaidAt              *time.Time
	FailureReason       string
	UnlessPaymentStatus []PaymentStatus
}

// Page selects a window of a listing. Page is 1-based.
type Page struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Skip is the number of records before the page.
func (p Page) Skip() int64 {
	n := p.Normalize()
	return int64((n.Page - 1) * n.PageSize)
}
