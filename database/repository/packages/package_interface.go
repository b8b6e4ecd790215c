package packageRepo

import (
	"context"

	"shipbook/models"
)

// PackageRepository persists the packages of a booking.
type PackageRepository interface {
	// Create inserts a package. A tracking number collision surfaces as
	// database.ErrDuplicateKey.
	Create(ctx context.Context, pkg *models.Package) error
	DeleteByID(ctx context.Context, id string) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.Package, error)
}
