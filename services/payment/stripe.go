package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shipbook/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe event types consumed by the processor.
const (
	EventIntentSucceeded      = "payment_intent.succeeded"
	EventIntentPaymentFailed  = "payment_intent.payment_failed"
	EventIntentCanceled       = "payment_intent.canceled"
	EventIntentProcessing     = "payment_intent.processing"
	EventIntentRequiresAction = "payment_intent.requires_action"
	EventDisputeCreated       = "charge.dispute.created"
	EventChargeRefunded       = "charge.refunded"
)

// StripeProvider implements Provider with the Stripe API.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, nil)}
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, in IntentParams) (*models.PaymentIntentState, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataBookingID, in.BookingID)
	params.AddMetadata("user_id", in.UserID)
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return IntentState(pi), nil
}

func (p *StripeProvider) RetrievePaymentIntent(ctx context.Context, id string) (*models.PaymentIntentState, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, err
	}
	return IntentState(pi), nil
}

func (p *StripeProvider) Refund(ctx context.Context, intentID, idempotencyKey string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	_, err := p.api.Refunds.New(params)
	return err
}

// IntentState maps a Stripe PaymentIntent to the provider-neutral view.
// Intents waiting on the customer map to requires_action; a declined
// attempt (requires_payment_method with a last error) maps to failed.
func IntentState(pi *stripe.PaymentIntent) *models.PaymentIntentState {
	state := &models.PaymentIntentState{
		ID:           pi.ID,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
		ClientSecret: pi.ClientSecret,
	}
	if pi.LastPaymentError != nil {
		state.FailureMessage = pi.LastPaymentError.Msg
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		state.Outcome = models.OutcomeSucceeded
		if pi.AmountReceived > 0 {
			state.AmountCents = pi.AmountReceived
		}
	case stripe.PaymentIntentStatusCanceled:
		state.Outcome = models.OutcomeCanceled
	case stripe.PaymentIntentStatusProcessing:
		state.Outcome = models.OutcomeProcessing
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		state.Outcome = models.OutcomeRequiresAction
		if pi.LastPaymentError != nil {
			state.Outcome = models.OutcomeFailed
		}
	default:
		state.Outcome = models.OutcomeRequiresAction
	}
	return state
}

// VerifyWebhook checks the Stripe-Signature header and returns the event.
func VerifyWebhook(payload []byte, signature, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// EventFromStripe is the single mapping from Stripe events to
// models.PaymentEvent. Field precedence:
//   - BookingID comes from the object's metadata.booking_id only
//   - a succeeded intent reports amount_received, falling back to amount
//   - dispute and refund events resolve the intent through the object's
//     payment_intent reference
//   - a partial refund is ignored; only a fully refunded charge maps to
//     refunded
//
// Event types not listed above map to OutcomeIgnored.
func EventFromStripe(event stripe.Event) (models.PaymentEvent, error) {
	out := models.PaymentEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Outcome:   models.OutcomeIgnored,
	}
	if event.Data == nil {
		return out, nil
	}

	switch out.EventType {
	case EventIntentSucceeded, EventIntentPaymentFailed, EventIntentCanceled,
		EventIntentProcessing, EventIntentRequiresAction:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return out, fmt.Errorf("decode payment intent of %s: %w", event.ID, err)
		}
		state := IntentState(&pi)
		out.PaymentIntentID = pi.ID
		out.AmountCents = state.AmountCents
		out.Currency = state.Currency
		out.BookingID = pi.Metadata[MetadataBookingID]
		out.FailureMessage = state.FailureMessage
		out.Outcome = intentEventOutcome(out.EventType)

	case EventDisputeCreated:
		var d stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &d); err != nil {
			return out, fmt.Errorf("decode dispute of %s: %w", event.ID, err)
		}
		out.Outcome = models.OutcomeDisputeCreated
		out.AmountCents = d.Amount
		out.Currency = string(d.Currency)
		out.BookingID = d.Metadata[MetadataBookingID]
		if d.PaymentIntent != nil {
			out.PaymentIntentID = d.PaymentIntent.ID
		}
		out.FailureMessage = string(d.Reason)

	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return out, fmt.Errorf("decode charge of %s: %w", event.ID, err)
		}
		out.AmountCents = ch.AmountRefunded
		out.Currency = string(ch.Currency)
		out.BookingID = ch.Metadata[MetadataBookingID]
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
		if ch.Refunded {
			out.Outcome = models.OutcomeRefunded
		}
	}
	return out, nil
}

func intentEventOutcome(eventType string) models.PaymentOutcome {
	switch eventType {
	case EventIntentSucceeded:
		return models.OutcomeSucceeded
	case EventIntentPaymentFailed:
		return models.OutcomeFailed
	case EventIntentCanceled:
		return models.OutcomeCanceled
	case EventIntentProcessing:
		return models.OutcomeProcessing
	}
	return models.OutcomeRequiresAction
}
