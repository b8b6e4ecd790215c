package invoiceRepo

import (
	"context"

	"shipbook/models"
)

// InvoiceRepository persists invoices, at most one per payment intent.
type InvoiceRepository interface {
	// Ensure stores inv unless an invoice for its payment intent exists. It
	// returns the stored invoice and whether this call created it.
	Ensure(ctx context.Context, inv *models.Invoice) (*models.Invoice, bool, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Invoice, error)
}
