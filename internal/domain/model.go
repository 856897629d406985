package domain

import "time"

type OrderStatus string

const (
	StatusReceived       OrderStatus = "received"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out-for-delivery"
	StatusCompleted      OrderStatus = "completed"
	StatusCanceled       OrderStatus = "canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether an order in this status is finished from the
// queue's point of view; terminal orders are archived on day reset.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a queue entry. ID is caller-assigned and stable across the
// POS client and the server; Ticket is assigned once and never changes.
type Order struct {
	ID            string      `json:"id"`
	Ticket        string      `json:"ticket"`
	Status        OrderStatus `json:"status"`
	Items         []OrderItem `json:"items,omitempty"`
	Total         float64     `json:"total"`
	CustomerName  string      `json:"customerName,omitempty"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// QueueState is the full durable snapshot: the live order queue plus the
// ticket sequencer fields. Insertion order of Orders is arrival order.
type QueueState struct {
	Orders        []Order `json:"orders"`
	CurrentPrefix string  `json:"currentPrefix"`
	CurrentNumber int     `json:"currentNumber"`
	LastResetDate string  `json:"lastResetDate"` // YYYY-MM-DD, establishment local time
}

// OrderIndex returns the position of the order with the given id, or -1.
func (s *QueueState) OrderIndex(id string) int {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy; mutating the copy never touches the original.
func (s *QueueState) Clone() QueueState {
	out := *s
	out.Orders = make([]Order, len(s.Orders))
	copy(out.Orders, s.Orders)
	for i := range out.Orders {
		if s.Orders[i].Items != nil {
			out.Orders[i].Items = make([]OrderItem, len(s.Orders[i].Items))
			copy(out.Orders[i].Items, s.Orders[i].Items)
		}
	}
	return out
}
