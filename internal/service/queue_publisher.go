package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/dhaqane/shop-backend/internal/logging"
	"github.com/dhaqane/shop-backend/internal/queue"
)

// EventPublisher sends order events to RabbitMQ.  Each publish opens its
// own connection; order placement is low volume and this keeps the
// publisher free of reconnect state.
type EventPublisher struct {
	url string
}

func NewEventPublisher(url string) *EventPublisher {
	return &EventPublisher{url: url}
}

// dialTimeout is the broker connect budget: two seconds, or less when ctx
// expires sooner.
func dialTimeout(ctx context.Context) time.Duration {
	d := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}

// PublishOrderPlaced publishes ev to the order.placed queue as a
// persistent JSON message.  Errors are logged and returned so the caller
// can ignore them.
func (p *EventPublisher) PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error {
	log := logging.FromContext(ctx).With(zap.String("queue", queue.OrderPlacedQueue))
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout(ctx))})
	if err != nil {
		log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.OrderPlacedQueue, // name
		true,                   // durable
		false,                  // autoDelete
		false,                  // exclusive
		false,                  // noWait
		nil,                    // args
	); err != nil {
		log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.OrderID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.OrderPlacedQueue, false, false, pub); err != nil {
		log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}
