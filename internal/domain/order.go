package domain

import "time"

// OrderStatus enumerates lifecycle states for print orders.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "Pending"
	OrderStatusPaymentConfirmed OrderStatus = "Payment Confirmed"
	OrderStatusPrinting         OrderStatus = "Printing"
	OrderStatusReadyForPickup   OrderStatus = "Ready for Pickup"
	OrderStatusCompleted        OrderStatus = "Completed"
)

// statusSequence is the fixed forward-only pipeline. Each stage maps to a
// real-world action (payment, printing, handoff), so none is skippable.
var statusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaymentConfirmed,
	OrderStatusPrinting,
	OrderStatusReadyForPickup,
	OrderStatusCompleted,
}

// AllStatuses returns the pipeline in order.
func AllStatuses() []OrderStatus {
	out := make([]OrderStatus, len(statusSequence))
	copy(out, statusSequence)
	return out
}

// Valid reports whether s is one of the five defined statuses.
func (s OrderStatus) Valid() bool {
	for _, candidate := range statusSequence {
		if candidate == s {
			return true
		}
	}
	return false
}

// NextStatus returns the immediate successor of s. The second return is
// false when s is terminal or unknown.
func NextStatus(s OrderStatus) (OrderStatus, bool) {
	for i, candidate := range statusSequence {
		if candidate == s && i+1 < len(statusSequence) {
			return statusSequence[i+1], true
		}
	}
	return "", false
}

// PrintSide enumerates the two supported print modes.
type PrintSide string

const (
	PrintSideOne PrintSide = "One-sided"
	PrintSideTwo PrintSide = "Two-sided"
)

// Order is the aggregate for a single print request.
type Order struct {
	ID             string
	CustomerName   string
	PhoneNumber    string
	Year           string
	Semester       string
	PrintSide      PrintSide
	Pages          int
	Copies         int
	Message        string
	AttachmentRefs []string
	OwnerID        string
	Status         OrderStatus
	CreatedAt      time.Time
}
