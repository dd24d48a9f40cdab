package dto

import "time"

// UpdateStatusRequest payload for PATCH /api/orders/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AttachmentResponse pairs a stored locator with its downloadable URL.
type AttachmentResponse struct {
	Locator string `json:"locator"`
	URL     string `json:"url"`
}

// OrderResponse is the outward order shape.
type OrderResponse struct {
	ID           string               `json:"id"`
	CustomerName string               `json:"customer_name"`
	PhoneNumber  string               `json:"phone_number"`
	Year         string               `json:"year"`
	Semester     string               `json:"semester"`
	PrintSide    string               `json:"print_side"`
	Pages        int                  `json:"pages"`
	Copies       int                  `json:"copies"`
	Message      string               `json:"message,omitempty"`
	Attachments  []AttachmentResponse `json:"attachments"`
	OwnerID      string               `json:"owner_id"`
	Status       string               `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
}

// StatusCountsResponse carries dashboard totals keyed by status.
type StatusCountsResponse struct {
	Counts map[string]int64 `json:"counts"`
}
