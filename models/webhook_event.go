package models

import "time"

// WebhookEvent is the idempotency ledger entry for a provider event.
// Entries are never deleted. Processed is independent of the provider
// acknowledgment, which is always sent.
type WebhookEvent struct {
	EventID     string       `bson:"event_id" json:"event_id"`
	EventType   string       `bson:"event_type" json:"event_type"`
	Payload     PaymentEvent `bson:"payload" json:"payload"`
	Processed   bool         `bson:"processed" json:"processed"`
	Error       string       `bson:"error,omitempty" json:"error,omitempty"`
	Attempts    int          `bson:"attempts" json:"attempts"`
	ReceivedAt  time.Time    `bson:"received_at" json:"received_at"`
	ProcessedAt *time.Time   `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	UpdatedAt   time.Time    `bson:"updated_at" json:"updated_at"`
}

// WebhookEventFilter narrows ledger listings. A nil Processed matches both.
type WebhookEventFilter struct {
	Processed *bool
}

// WebhookEventList is a page of ledger entries.
type WebhookEventList struct {
	Events   []WebhookEvent `json:"events"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
