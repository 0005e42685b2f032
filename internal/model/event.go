package model

import "time"

// EventStatus reflects the lifecycle of an event. Events with active
// bookings are never deleted; they are cancelled instead.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Pricing maps each seat class to its price in cents.
type Pricing struct {
	VIPCents     int64 `json:"vip_cents"`
	PremiumCents int64 `json:"premium_cents"`
	RegularCents int64 `json:"regular_cents"`
}

// For returns the price in cents for the given seat class.
func (p Pricing) For(class SeatClass) int64 {
	switch class {
	case SeatClassVIP:
		return p.VIPCents
	case SeatClassPremium:
		return p.PremiumCents
	default:
		return p.RegularCents
	}
}

// BookedSeat is one entry of an event's booked seat set.
type BookedSeat struct {
	SeatLabel string    `json:"seat_label"`
	Class     SeatClass `json:"class"`
}

// Event holds the seat layout, pricing and the authoritative set of
// currently booked seats for one event. AvailableSeats is derived:
// AvailableSeats == TotalSeats - len(BookedSeats) must hold after every
// committed reservation or cancellation.
type Event struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Venue          string       `json:"venue"`
	StartsAt       time.Time    `json:"starts_at"`
	SeatRows       int          `json:"seat_rows"`
	SeatCols       int          `json:"seat_cols"`
	Pricing        Pricing      `json:"pricing"`
	TotalSeats     int          `json:"total_seats"`
	AvailableSeats int          `json:"available_seats"`
	BookedSeats    []BookedSeat `json:"booked_seats"`
	Status         EventStatus  `json:"status"`
	CreatedBy      string       `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Contains reports whether the given seat label addresses a seat inside
// the event's layout.
func (e *Event) Contains(label string) bool {
	row, col, ok := ParseSeatLabel(label)
	if !ok {
		return false
	}
	return row < e.SeatRows && col <= e.SeatCols
}

// Availability is a read-only snapshot of an event's inventory.
type Availability struct {
	EventID        string       `json:"event_id"`
	TotalSeats     int          `json:"total_seats"`
	AvailableSeats int          `json:"available_seats"`
	BookedSeats    []BookedSeat `json:"booked_seats"`
}
