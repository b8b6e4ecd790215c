package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shipbook/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	QueueBookingConfirmed = "booking.confirmed"
	QueuePaymentStatus    = "payment.status"
)

// AMQPPublisher publishes facts as persistent JSON messages to durable
// queues on the default exchange. Each publish opens its own connection.
type AMQPPublisher struct {
	URL    string
	Logger *zap.Logger
}

func NewAMQPPublisher(url string, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Logger: logger}
}

func (p *AMQPPublisher) BookingConfirmed(ctx context.Context, fact models.BookingConfirmedFact) error {
	return p.publish(ctx, QueueBookingConfirmed, fact.BookingID, fact)
}

func (p *AMQPPublisher) PaymentStatusChanged(ctx context.Context, fact models.PaymentStatusFact) error {
	return p.publish(ctx, QueuePaymentStatus, fact.BookingID, fact)
}

func (p *AMQPPublisher) publish(ctx context.Context, queue, bookingID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("amqp: marshal %s: %w", queue, err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("amqp: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("amqp: declare %s: %w", queue, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    bookingID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		return fmt.Errorf("amqp: publish %s: %w", queue, err)
	}

	if p.Logger != nil {
		p.Logger.Debug("published notification", zap.String("queue", queue), zap.String("bookingID", bookingID))
	}
	return nil
}
