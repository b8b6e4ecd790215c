package webhookRepo

import (
	"context"
	"time"

	"shipbook/models"
)

// WebhookEventRepository is the idempotency ledger of provider events.
type WebhookEventRepository interface {
	// Record inserts the event unless its ID is already known. It returns
	// the stored entry and whether this call created it.
	Record(ctx context.Context, event models.PaymentEvent, receivedAt time.Time) (*models.WebhookEvent, bool, error)
	Get(ctx context.Context, eventID string) (*models.WebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string, at time.Time) error
	MarkFailed(ctx context.Context, eventID, reason string, at time.Time) error
	List(ctx context.Context, filter models.WebhookEventFilter, page models.Page) ([]models.WebhookEvent, int64, error)
	// ListUnprocessed returns entries received before olderThan that have
	// been attempted fewer than maxAttempts times, oldest first.
	ListUnprocessed(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]models.WebhookEvent, error)
}
