package events

import (
	"time"

	"github.com/spec-kit/print-order-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated       EventType = "order_created"
	EventOrderStatusChanged EventType = "order_status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	OrderID   string      `json:"order_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	CustomerName    string `json:"customer_name"`
	Pages           int    `json:"pages"`
	Copies          int    `json:"copies"`
	AttachmentCount int    `json:"attachment_count"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	CustomerName string             `json:"customer_name"`
	OldStatus    domain.OrderStatus `json:"old_status"`
	NewStatus    domain.OrderStatus `json:"new_status"`
}
