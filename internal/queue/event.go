// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedQueue is the durable queue order events are routed to.
const OrderPlacedQueue = "order.placed"

// OrderPlacedEvent is published once an order has been persisted.  It
// carries enough for downstream consumers to log, notify or feed analytics
// without reading the orders collection.
type OrderPlacedEvent struct {
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id"`
	PaymentMethod string      `json:"payment_method"`
	PaymentKind   string      `json:"payment_kind"`
	PaymentRef    string      `json:"payment_ref,omitempty"`
	Status        string      `json:"status"`
	Lines         []EventLine `json:"lines"`
	Total         string      `json:"total"`
	Phone         string      `json:"phone,omitempty"`
	PlacedAt      string      `json:"placed_at"`
}

// EventLine is one product line of an order event.
type EventLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}
