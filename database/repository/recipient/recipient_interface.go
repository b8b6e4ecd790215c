package recipientRepo

import (
	"context"

	"shipbook/models"
)

// RecipientRepository persists saved shipment recipients.
type RecipientRepository interface {
	Create(ctx context.Context, recipient *models.Recipient) error
	GetByID(ctx context.Context, id string) (*models.Recipient, error)
	Delete(ctx context.Context, id string) error
}
