package payment

import "errors"

var (
	ErrBookingMetadataMismatch = errors.New("BookingMetadataMismatch")
	ErrNoPaymentIntent         = errors.New("booking has no payment intent")
	ErrForbidden               = errors.New("forbidden")
	ErrBookingNotFound         = errors.New("booking not found")
	ErrEventNotFound           = errors.New("webhook event not found")
	ErrNotPayable              = errors.New("booking is not awaiting payment")
	ErrNotRefundable           = errors.New("booking is not refundable")
)
