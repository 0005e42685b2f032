package model

import "time"

// BookingStatus is the state machine of a booking. Cancellation is a
// status change, not a deletion, so the ledger keeps full history.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentStatus is coupled to the booking status; no real payment
// processing happens, only the flag transitions.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// BookingSeat snapshots one reserved seat with the price captured at
// commit time. Prices are immutable afterwards even if the event's
// pricing table changes.
type BookingSeat struct {
	SeatLabel  string    `json:"seat_label"`
	Class      SeatClass `json:"class"`
	PriceCents int64     `json:"price_cents"`
}

// Booking is the durable ledger record of one reservation outcome.
type Booking struct {
	ID               string        `json:"id"`
	EventID          string        `json:"event_id"`
	UserID           string        `json:"user_id"`
	Seats            []BookingSeat `json:"seats"`
	TotalAmountCents int64         `json:"total_amount_cents"`
	Status           BookingStatus `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// SeatLabels returns the seat identifiers of the booking in order.
func (b *Booking) SeatLabels() []string {
	labels := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		labels = append(labels, s.SeatLabel)
	}
	return labels
}

// BookingStats is the dashboard aggregate over the ledger. Revenue counts
// confirmed bookings only.
type BookingStats struct {
	TotalBookings     int   `json:"total_bookings"`
	ConfirmedBookings int   `json:"confirmed_bookings"`
	CancelledBookings int   `json:"cancelled_bookings"`
	TotalRevenueCents int64 `json:"total_revenue_cents"`
}
