package booking

import (
	"context"
	"time"

	"shipbook/database/repository"
	"shipbook/models"
	"shipbook/services/pricing"

	"go.uber.org/zap"
)

// BookingService creates and reads shipment bookings.
type BookingService interface {
	CreateBooking(ctx context.Context, identity models.Identity, req models.CreateBookingRequest) (*models.CreateBookingResponse, error)
	GetBooking(ctx context.Context, identity models.Identity, id string) (*models.BookingDetail, error)
	ListBookings(ctx context.Context, identity models.Identity, page models.Page) (*models.BookingList, error)
	Quote(ctx context.Context, req models.QuoteRequest) (*pricing.Quote, error)
}

const (
	defaultTrackingAttempts     = 5
	defaultCompensationAttempts = 3
	defaultCompensationDelay    = 200 * time.Millisecond
)

// DefaultBookingService implements BookingService over single-record
// atomic repositories. Zero-valued tuning fields fall back to defaults.
type DefaultBookingService struct {
	Bookings   repository.BookingRepository
	Packages   repository.PackageRepository
	Recipients repository.RecipientRepository
	Pricing    *pricing.Engine
	Currency   string
	Logger     *zap.Logger

	Now                  func() time.Time
	NewTrackingNumber    func() (string, error)
	TrackingAttempts     int
	CompensationAttempts int
	CompensationDelay    time.Duration
}

func NewBookingService(
	bookings repository.BookingRepository,
	packages repository.PackageRepository,
	recipients repository.RecipientRepository,
	engine *pricing.Engine,
	currency string,
	logger *zap.Logger,
) *DefaultBookingService {
	return &DefaultBookingService{
		Bookings:             bookings,
		Packages:             packages,
		Recipients:           recipients,
		Pricing:              engine,
		Currency:             currency,
		Logger:               logger,
		Now:                  time.Now,
		NewTrackingNumber:    NewTrackingNumber,
		TrackingAttempts:     defaultTrackingAttempts,
		CompensationAttempts: defaultCompensationAttempts,
		CompensationDelay:    defaultCompensationDelay,
	}
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *DefaultBookingService) trackingNumber() (string, error) {
	if s.NewTrackingNumber != nil {
		return s.NewTrackingNumber()
	}
	return NewTrackingNumber()
}

func atLeast(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
