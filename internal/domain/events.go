package domain

import "time"

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusUpdated EventType = "order.status_updated"
)

// OrderEvent is what the notification dispatcher fans out to the
// channel adapters and onto the broadcast exchange.
type OrderEvent struct {
	EventID       string      `json:"event_id"`
	Type          EventType   `json:"event_type"`
	OrderID       string      `json:"order_id"`
	Ticket        string      `json:"ticket"`
	Status        OrderStatus `json:"status"`
	Items         []OrderItem `json:"items,omitempty"`
	Total         float64     `json:"total"`
	CustomerName  string      `json:"customer_name,omitempty"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}
