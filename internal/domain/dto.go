package domain

import "time"

// ClientOrder is an order as submitted by the POS client. CreatedAt is
// left untyped because real clients send RFC3339 strings, epoch
// milliseconds, or nothing at all; the reconciler coerces it.
type ClientOrder struct {
	ID            string      `json:"id"`
	Ticket        string      `json:"ticket,omitempty"`
	Status        string      `json:"status,omitempty"`
	Items         []OrderItem `json:"items,omitempty"`
	Total         float64     `json:"total"`
	CustomerName  string      `json:"customerName,omitempty"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
	CreatedAt     any         `json:"createdAt,omitempty"`
}

type SyncQueueRequest struct {
	Orders        []ClientOrder `json:"orders"`
	CurrentPrefix string        `json:"currentPrefix"`
	CurrentNumber int           `json:"currentNumber"`
}

type SyncQueueResponse struct {
	Success    bool      `json:"success"`
	OrderCount int       `json:"orderCount"`
	Timestamp  time.Time `json:"timestamp"`
}

type AddOrderRequest struct {
	Order         ClientOrder `json:"order"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
}

type AddOrderResponse struct {
	Success bool   `json:"success"`
	Ticket  string `json:"ticket,omitempty"`
}

type UpdateStatusRequest struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	CustomerPhone string `json:"customerPhone,omitempty"`
}

type ResetCheckResponse struct {
	Reset bool `json:"reset"`
}

type FetchQueueResponse struct {
	Orders        []Order        `json:"orders"`
	CurrentPrefix string         `json:"currentPrefix"`
	CurrentNumber int            `json:"currentNumber"`
	LastResetDate string         `json:"lastResetDate,omitempty"`
	StatusCounts  map[string]int `json:"statusCounts,omitempty"`
}

// FieldError is one entry of the structured validation error list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
