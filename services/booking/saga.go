package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"shipbook/database"
	"shipbook/models"
	"shipbook/services/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sagaLog records what a CreateBooking call has written so far.
type sagaLog struct {
	recipient *models.Recipient
	booking   *models.Booking
	packages  []*models.Package
}

// CreateBooking validates and prices the request, then writes the optional
// inline recipient, the booking and its packages one record at a time. If
// any write fails, everything written by this call is deleted again and the
// failing error is returned unchanged: the caller observes either the full
// booking or nothing.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, identity models.Identity, req models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	if !identity.Can(models.CapCreateBooking) {
		return nil, newError(ErrForbidden, "role %q may not create bookings", identity.Role)
	}
	if issues := ValidateRequest(req); len(issues) > 0 {
		return nil, validationError(issues)
	}
	dest, ok := s.Pricing.Destination(req.Destination)
	if !ok {
		return nil, newError(ErrInvalidDestination, "destination %q is not served", req.Destination)
	}
	if err := validateSchedule(req.ScheduledDate, dest, s.now()); err != nil {
		return nil, err
	}

	recipientID, inline, err := s.resolveRecipient(ctx, identity, dest.Code, req)
	if err != nil {
		return nil, err
	}
	quote, err := s.price(quoteRequest(req.ServiceLevel, dest.Code, req.Packages, req.DoorToDoor, req.CustomsClearance, req.Insurance))
	if err != nil {
		return nil, err
	}

	// --- Writes start here; every failure below must compensate. ---
	now := s.now()
	var saga sagaLog

	if inline != nil {
		if err := s.Recipients.Create(ctx, inline); err != nil {
			return nil, err
		}
		saga.recipient = inline
		recipientID = inline.ID
	}

	booking := s.newBooking(identity.UserID, recipientID, dest.Code, req, quote, now)
	if err := s.Bookings.Create(ctx, booking); err != nil {
		s.compensate(ctx, &saga)
		return nil, err
	}
	saga.booking = booking

	resp := &models.CreateBookingResponse{
		BookingID: booking.ID,
		TotalCost: pricing.FromCents(booking.TotalCostCents),
		Currency:  booking.Currency,
		Status:    booking.Status,
		Packages:  make([]models.PackageResponse, 0, len(req.Packages)),
	}
	for i, in := range req.Packages {
		pkg := newPackage(booking.ID, in, quote.Packages[i], now)
		if err := s.createPackage(ctx, pkg); err != nil {
			s.logger().Warn("booking saga failed, compensating",
				zap.String("bookingID", booking.ID),
				zap.Int("package", i),
				zap.Int("created", len(saga.packages)),
				zap.Error(err))
			s.compensate(ctx, &saga)
			return nil, err
		}
		saga.packages = append(saga.packages, pkg)
		resp.Packages = append(resp.Packages, models.PackageResponse{
			ID:             in.ID,
			PackageID:      pkg.ID,
			TrackingNumber: pkg.TrackingNumber,
		})
	}

	s.logger().Info("booking created",
		zap.String("bookingID", booking.ID),
		zap.String("userID", identity.UserID),
		zap.Int("packages", len(saga.packages)),
		zap.Int64("totalCents", booking.TotalCostCents))
	return resp, nil
}

// resolveRecipient checks ownership of a referenced recipient or prepares an
// inline one. The inline record is returned unsaved.
func (s *DefaultBookingService) resolveRecipient(ctx context.Context, identity models.Identity, destination string, req models.CreateBookingRequest) (string, *models.Recipient, error) {
	if req.RecipientID != "" {
		rec, err := s.Recipients.GetByID(ctx, req.RecipientID)
		if errors.Is(err, database.ErrNotFound) {
			return "", nil, validationError([]models.ValidationIssue{{Field: "recipientId", Message: "recipient does not exist"}})
		}
		if err != nil {
			return "", nil, err
		}
		if rec.OwnerID != identity.UserID {
			return "", nil, newError(ErrRecipientOwnershipViolation, "recipient %s is not owned by the caller", rec.ID)
		}
		return rec.ID, nil, nil
	}
	return "", RecipientFromInput(identity.UserID, destination, *req.Recipient, s.now()), nil
}

func (s *DefaultBookingService) price(req pricing.QuoteRequest) (*pricing.Quote, error) {
	quote, err := s.Pricing.Quote(req)
	if errors.Is(err, pricing.ErrInvalidDestination) {
		return nil, newError(ErrInvalidDestination, "destination %q is not served", req.Destination)
	}
	if err != nil {
		return nil, err
	}
	if math.IsNaN(quote.Total) || math.IsInf(quote.Total, 0) || pricing.Cents(quote.Total) <= 0 {
		return nil, newError(ErrInvalidPricingResult, "computed total %v is not payable", quote.Total)
	}
	return quote, nil
}

func quoteRequest(level models.ServiceLevel, dest string, pkgs []models.PackageInput, door, customs, insurance bool) pricing.QuoteRequest {
	req := pricing.QuoteRequest{
		Destination:      dest,
		ServiceLevel:     level,
		Packages:         make([]pricing.PackageSpec, 0, len(pkgs)),
		DoorToDoor:       door,
		CustomsClearance: customs,
		Insurance:        insurance,
	}
	for _, p := range pkgs {
		req.Packages = append(req.Packages, packageSpec(p))
	}
	return req
}

// packageSpec zeroes any measurement the client flagged as unknown.
func packageSpec(p models.PackageInput) pricing.PackageSpec {
	spec := pricing.PackageSpec{DeclaredValue: p.DeclaredValue}
	if p.Weight != nil && !p.WeightUnknown {
		spec.Weight = *p.Weight
	}
	if p.Dimensions != nil && !p.DimensionsUnknown {
		spec.Length = p.Dimensions.Length
		spec.Width = p.Dimensions.Width
		spec.Height = p.Dimensions.Height
	}
	return spec
}

func (s *DefaultBookingService) newBooking(userID, recipientID, dest string, req models.CreateBookingRequest, q *pricing.Quote, now time.Time) *models.Booking {
	return &models.Booking{
		ID:                  uuid.New().String(),
		UserID:              userID,
		RecipientID:         recipientID,
		ServiceLevel:        req.ServiceLevel,
		Destination:         dest,
		ScheduledDate:       req.ScheduledDate,
		TimeSlot:            req.TimeSlot,
		SpecialInstructions: req.SpecialInstructions,
		DoorToDoor:          req.DoorToDoor,
		CustomsClearance:    req.CustomsClearance,
		Insurance:           req.Insurance,
		PackageCount:        len(req.Packages),
		SubtotalCents:       pricing.Cents(q.Subtotal),
		DiscountCents:       pricing.Cents(q.Discount()),
		SurchargeCents:      pricing.Cents(q.ServiceSurcharge),
		FeesCents:           pricing.Cents(q.Fees()),
		InsuranceCostCents:  pricing.Cents(q.InsuranceFee),
		TotalCostCents:      pricing.Cents(q.Total),
		Currency:            s.Currency,
		Status:              models.BookingStatusPendingPayment,
		PaymentStatus:       models.PaymentStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func newPackage(bookingID string, in models.PackageInput, pq pricing.PackageQuote, now time.Time) *models.Package {
	spec := packageSpec(in)
	return &models.Package{
		ID:                 uuid.New().String(),
		BookingID:          bookingID,
		Weight:             spec.Weight,
		WeightUnknown:      spec.Weight == 0,
		Length:             spec.Length,
		Width:              spec.Width,
		Height:             spec.Height,
		DimensionsUnknown:  spec.Length == 0,
		DimWeight:          pricing.Round2(pq.DimWeight),
		BillableWeight:     pricing.Round2(pq.BillableWeight),
		DeclaredValueCents: pricing.Cents(in.DeclaredValue),
		CostCents:          pricing.Cents(pq.Cost),
		Contents:           in.Contents,
		Instructions:       in.Instructions,
		CreatedAt:          now,
	}
}

// createPackage inserts pkg with a fresh tracking number, drawing a new one
// whenever the store reports a collision.
func (s *DefaultBookingService) createPackage(ctx context.Context, pkg *models.Package) error {
	attempts := atLeast(s.TrackingAttempts, defaultTrackingAttempts)
	var lastErr error
	for i := 0; i < attempts; i++ {
		token, err := s.trackingNumber()
		if err != nil {
			return err
		}
		pkg.TrackingNumber = token
		lastErr = s.Packages.Create(ctx, pkg)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, database.ErrDuplicateKey) {
			return lastErr
		}
		s.logger().Debug("tracking number collision", zap.String("trackingNumber", token))
	}
	return fmt.Errorf("no unique tracking number after %d attempts: %w", attempts, lastErr)
}

// compensate deletes the saga's records newest first. Failures are logged
// and never returned so the original error reaches the caller.
func (s *DefaultBookingService) compensate(ctx context.Context, saga *sagaLog) {
	ctx = context.WithoutCancel(ctx)
	for i := len(saga.packages) - 1; i >= 0; i-- {
		id := saga.packages[i].ID
		s.retryDelete(ctx, "package", id, func(ctx context.Context) error {
			return s.Packages.DeleteByID(ctx, id)
		})
	}
	if saga.booking != nil {
		id := saga.booking.ID
		s.retryDelete(ctx, "booking", id, func(ctx context.Context) error {
			return s.Bookings.Delete(ctx, id)
		})
	}
	if saga.recipient != nil {
		id := saga.recipient.ID
		s.retryDelete(ctx, "recipient", id, func(ctx context.Context) error {
			return s.Recipients.Delete(ctx, id)
		})
	}
}

func (s *DefaultBookingService) retryDelete(ctx context.Context, kind, id string, del func(context.Context) error) {
	attempts := atLeast(s.CompensationAttempts, defaultCompensationAttempts)
	for i := 1; i <= attempts; i++ {
		err := del(ctx)
		if err == nil {
			return
		}
		if i == attempts {
			s.logger().Error("compensating delete abandoned",
				zap.String("kind", kind), zap.String("id", id), zap.Int("attempts", attempts), zap.Error(err))
			return
		}
		s.logger().Warn("compensating delete failed, retrying",
			zap.String("kind", kind), zap.String("id", id), zap.Int("attempt", i), zap.Error(err))
		if s.CompensationDelay > 0 {
			time.Sleep(s.CompensationDelay * time.Duration(i))
		}
	}
}
