package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shipbook/models"

	"firebase.google.com/go/v4/messaging"
)

// Sender is the subset of *messaging.Client used for pushes.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMDispatcher pushes facts to the per-user topic "user_<id>". Devices
// subscribe to their owner's topic at sign-in.
type FCMDispatcher struct {
	Client Sender
}

func NewFCMDispatcher(client Sender) *FCMDispatcher {
	return &FCMDispatcher{Client: client}
}

// UserTopic returns the FCM topic for a user.
func UserTopic(userID string) string {
	return "user_" + userID
}

func (d *FCMDispatcher) BookingConfirmed(ctx context.Context, fact models.BookingConfirmedFact) error {
	body := fmt.Sprintf("Your shipment to %s on %s is confirmed.", fact.Destination, fact.ScheduledDate)
	return d.send(ctx, fact.UserID, "Booking confirmed", body, map[string]string{
		"type":            "booking_confirmed",
		"bookingId":       fact.BookingID,
		"trackingNumbers": strings.Join(fact.TrackingNumbers, ","),
		"amount":          strconv.FormatInt(fact.AmountCents, 10),
		"currency":        fact.Currency,
	})
}

func (d *FCMDispatcher) PaymentStatusChanged(ctx context.Context, fact models.PaymentStatusFact) error {
	body := fmt.Sprintf("Payment for booking %s is now %s.", shortID(fact.BookingID), fact.PaymentStatus)
	return d.send(ctx, fact.UserID, "Payment update", body, map[string]string{
		"type":          "payment_status",
		"bookingId":     fact.BookingID,
		"bookingStatus": string(fact.BookingStatus),
		"paymentStatus": string(fact.PaymentStatus),
	})
}

func (d *FCMDispatcher) send(ctx context.Context, userID, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Topic: UserTopic(userID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := d.Client.Send(ctx, msg); err != nil {
		return fmt.Errorf("fcm: send to %s: %w", msg.Topic, err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
