package booking

import (
	"context"
	"errors"

	"shipbook/database"
	"shipbook/models"
	"shipbook/services/pricing"
)

func (s *DefaultBookingService) GetBooking(ctx context.Context, identity models.Identity, id string) (*models.BookingDetail, error) {
	booking, err := s.Bookings.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(ErrNotFound, "booking %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if !identity.CanAccessOwned(booking.UserID, models.CapReadOwnBooking, models.CapReadAnyBooking) {
		return nil, newError(ErrForbidden, "booking %s belongs to another user", id)
	}

	pkgs, err := s.Packages.ListByBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.BookingDetail{Booking: *booking, Packages: pkgs}, nil
}

// ListBookings pages through the caller's bookings. Operators see all.
func (s *DefaultBookingService) ListBookings(ctx context.Context, identity models.Identity, page models.Page) (*models.BookingList, error) {
	if !identity.Can(models.CapReadOwnBooking) {
		return nil, newError(ErrForbidden, "role %q may not list bookings", identity.Role)
	}
	owner := identity.UserID
	if identity.Can(models.CapReadAnyBooking) {
		owner = ""
	}

	page = page.Normalize()
	bookings, total, err := s.Bookings.ListByUser(ctx, owner, page)
	if err != nil {
		return nil, err
	}
	return &models.BookingList{
		Bookings: bookings,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// Quote prices a prospective booking without writing anything.
func (s *DefaultBookingService) Quote(ctx context.Context, req models.QuoteRequest) (*pricing.Quote, error) {
	if issues := ValidateQuoteRequest(req); len(issues) > 0 {
		return nil, validationError(issues)
	}
	quote, err := s.price(quoteRequest(req.ServiceLevel, req.Destination, req.Packages, req.DoorToDoor, req.CustomsClearance, req.Insurance))
	if err != nil {
		return nil, err
	}
	rounded := quote.Rounded()
	return &rounded, nil
}
