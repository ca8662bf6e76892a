package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// OrderLogFile is the file, relative to the log directory, that consumed
// order events are appended to.
const OrderLogFile = "orders.log"

// StartOrderConsumer connects to RabbitMQ, declares the order.placed queue
// (durable) and appends every message to dir/orders.log as one line.  It
// reconnects with exponential backoff until ctx is cancelled, then
// returns ctx.Err().  A message that cannot be handled is rejected without
// requeue so the loop never spins on it.
func StartOrderConsumer(ctx context.Context, url, dir string, log *zap.Logger) error {
	log = log.With(zap.String("component", "order-consumer"))
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, dir, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(OrderPlacedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(OrderPlacedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleOrderMessage(dir, d.Body); err != nil {
				log.Error("handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleOrderMessage decodes one order event and appends it to the order
// log under dir.
func HandleOrderMessage(dir string, body []byte) error {
	var ev OrderPlacedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.OrderID == "" {
		return errors.New("event without order id")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, OrderLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatOrderLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatOrderLine renders ev as a single human-readable log line.
func FormatOrderLine(ev OrderPlacedEvent) string {
	items := make([]string, 0, len(ev.Lines))
	for _, l := range ev.Lines {
		name := l.ProductName
		if name == "" {
			name = l.ProductID
		}
		items = append(items, fmt.Sprintf("%s x%d", name, l.Quantity))
	}
	line := fmt.Sprintf("[%s] Order placed | order_id=%s | user_id=%s | status=%s | payment=%s (%s) | total=%s | items=[%s]",
		ev.PlacedAt, ev.OrderID, ev.UserID, ev.Status, ev.PaymentMethod, ev.PaymentKind, ev.Total, strings.Join(items, ", "))
	if ev.PaymentRef != "" {
		line += " | ref=" + ev.PaymentRef
	}
	return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
