package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeSweepEvents      = "payments:sweep"
	TypeReconcilePending = "payments:reconcile_pending"
)

// SweepPayload selects unprocessed ledger entries to replay.
type SweepPayload struct {
	GracePeriod time.Duration `json:"gracePeriod"`
	MaxAttempts int           `json:"maxAttempts"`
	Limit       int           `json:"limit"`
}

// ReconcilePayload selects unsettled bookings to pull from the provider.
type ReconcilePayload struct {
	GracePeriod time.Duration `json:"gracePeriod"`
	Limit       int           `json:"limit"`
}

func NewSweepTask(payload SweepPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// A missed sweep is covered by the next tick.
	return asynq.NewTask(TypeSweepEvents, b, asynq.MaxRetry(0), asynq.Timeout(5*time.Minute)), nil
}

func NewReconcilePendingTask(payload ReconcilePayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReconcilePending, b, asynq.MaxRetry(0), asynq.Timeout(5*time.Minute)), nil
}
