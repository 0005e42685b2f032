// Package queue defines the message payloads exchanged over the broker
// plus the publisher and the background consumer for booking events.
package queue

// BookingConfirmedEvent is published when a reservation commits. It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary store.
type BookingConfirmedEvent struct {
	BookingID        string   `json:"booking_id"`
	EventID          string   `json:"event_id"`
	EventTitle       string   `json:"event_title"`
	UserID           string   `json:"user_id"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents int64    `json:"total_amount_cents"`
	ConfirmedAt      string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled and its
// seats return to the inventory.
type BookingCancelledEvent struct {
	BookingID   string   `json:"booking_id"`
	EventID     string   `json:"event_id"`
	UserID      string   `json:"user_id"`
	SeatLabels  []string `json:"seats"`
	RefundCents int64    `json:"refund_cents"`
	CancelledAt string   `json:"cancelled_at"`
}
