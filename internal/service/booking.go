// Package service implements the seat reservation engine: it validates
// booking requests against event inventory, prices seats from the event's
// pricing table and drives the atomic commit and release operations of
// the store. Handlers contain no reservation logic of their own.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// RoleAdmin is the elevated role allowed to act across all users'
// bookings and to view aggregate statistics.
const RoleAdmin = "admin"

// Store is the contract the engine requires from its storage backend.
// Both repository.MemoryStore and repository.SQLStore satisfy it.
// CommitReservation and CancelBooking must be atomic with respect to all
// other reserve/release calls on the same event.
type Store interface {
	CreateEvent(ctx context.Context, ev *model.Event) error
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetAvailability(ctx context.Context, eventID string) (*model.Availability, error)

	CommitReservation(ctx context.Context, b *model.Booking) error
	CancelBooking(ctx context.Context, bookingID string) (*model.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*model.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	Stats(ctx context.Context) (*model.BookingStats, error)
}

// Publisher emits booking lifecycle events to the message broker. A nil
// publisher disables publishing; failures are logged and never interrupt
// the request flow.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// BookingService is the reservation engine. The redis client is optional
// and only used for availability snapshot caching.
type BookingService struct {
	store     Store
	cache     *redis.Client
	publisher Publisher
}

// NewBookingService constructs the engine. cache and publisher may be nil.
func NewBookingService(store Store, cache *redis.Client, publisher Publisher) *BookingService {
	if store == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{store: store, cache: cache, publisher: publisher}
}

// SeatRequest is one requested seat as submitted by the caller. Class and
// PriceCents are optional; when present they are validated against the
// server-side values derived from the seat's row and the event pricing.
type SeatRequest struct {
	SeatLabel  string          `json:"seat_label"`
	Class      model.SeatClass `json:"class,omitempty"`
	PriceCents int64           `json:"price_cents,omitempty"`
}

// CreateBooking validates the requested seats, prices them from the event
// pricing table and commits the reservation atomically. On a seat
// conflict it returns a repository.SeatsUnavailableError naming the
// conflicting seats and leaves inventory and ledger unchanged.
//
// Prices are always recomputed server-side from the seat row; a submitted
// class or price that disagrees with the derived value is rejected rather
// than trusted.
func (s *BookingService) CreateBooking(ctx context.Context, userID, eventID string, requested []SeatRequest) (*model.Booking, error) {
	if userID == "" || eventID == "" {
		return nil, fmt.Errorf("%w: user and event are required", repository.ErrInvalidRequest)
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: no seats requested", repository.ErrInvalidRequest)
	}

	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	seats, total, err := s.priceSeats(ev, requested)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking := &model.Booking{
		ID:               uuid.NewString(),
		EventID:          eventID,
		UserID:           userID,
		Seats:            seats,
		TotalAmountCents: total,
		Status:           model.BookingConfirmed,
		PaymentStatus:    model.PaymentPaid,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CommitReservation(ctx, booking); err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, eventID)
	if s.publisher != nil {
		if err := s.publisher.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
			BookingID:        booking.ID,
			EventID:          eventID,
			EventTitle:       ev.Title,
			UserID:           userID,
			SeatLabels:       booking.SeatLabels(),
			TotalAmountCents: total,
			ConfirmedAt:      now.Format(time.RFC3339),
		}); err != nil {
			log.Printf("booking %s: publish confirmed event failed: %v", booking.ID, err)
		}
	}
	return booking, nil
}

// priceSeats deduplicates the request, checks every label against the
// event layout and snapshots the authoritative class and price per seat.
// Labels are canonicalized first ("a1", "A01" become "A1") so aliased
// spellings of the same seat key identically in the dedupe map, the
// ledger and the stores' booked-seat sets.
func (s *BookingService) priceSeats(ev *model.Event, requested []SeatRequest) ([]model.BookingSeat, int64, error) {
	seats := make([]model.BookingSeat, 0, len(requested))
	seen := make(map[string]model.BookingSeat, len(requested))
	var total int64
	for _, req := range requested {
		row, col, ok := model.ParseSeatLabel(req.SeatLabel)
		if !ok {
			return nil, 0, fmt.Errorf("%w: seat %q is not part of the event layout", repository.ErrInvalidRequest, req.SeatLabel)
		}
		label := model.SeatLabel(row, col)
		if !ev.Contains(label) {
			return nil, 0, fmt.Errorf("%w: seat %q is not part of the event layout", repository.ErrInvalidRequest, req.SeatLabel)
		}
		class := model.ClassForRow(row)
		price := ev.Pricing.For(class)
		if req.Class != "" && req.Class != class {
			return nil, 0, fmt.Errorf("%w: seat %s is %s class", repository.ErrInvalidRequest, label, class)
		}
		if req.PriceCents != 0 && req.PriceCents != price {
			return nil, 0, fmt.Errorf("%w: seat %s costs %d", repository.ErrInvalidRequest, label, price)
		}
		seat := model.BookingSeat{SeatLabel: label, Class: class, PriceCents: price}
		if prev, dup := seen[label]; dup {
			if prev != seat {
				return nil, 0, fmt.Errorf("%w: seat %s requested twice with conflicting details", repository.ErrInvalidRequest, label)
			}
			continue
		}
		seen[label] = seat
		seats = append(seats, seat)
		total += price
	}
	return seats, total, nil
}

// CancelBooking reverses a reservation. The actor must own the booking or
// hold the admin role. Cancelling an already cancelled booking fails with
// repository.ErrAlreadyCancelled and does not touch the inventory.
func (s *BookingService) CancelBooking(ctx context.Context, actorID, actorRole, bookingID string) (*model.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actorID && actorRole != RoleAdmin {
		return nil, repository.ErrForbidden
	}

	cancelled, err := s.store.CancelBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, cancelled.EventID)
	if s.publisher != nil {
		if err := s.publisher.PublishBookingCancelled(ctx, queue.BookingCancelledEvent{
			BookingID:   cancelled.ID,
			EventID:     cancelled.EventID,
			UserID:      cancelled.UserID,
			SeatLabels:  cancelled.SeatLabels(),
			RefundCents: cancelled.TotalAmountCents,
			CancelledAt: cancelled.UpdatedAt.Format(time.RFC3339),
		}); err != nil {
			log.Printf("booking %s: publish cancelled event failed: %v", cancelled.ID, err)
		}
	}
	return cancelled, nil
}

// GetBooking returns one booking. Non-admin callers may only read their
// own bookings.
func (s *BookingService) GetBooking(ctx context.Context, actorID, actorRole, bookingID string) (*model.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actorID && actorRole != RoleAdmin {
		return nil, repository.ErrForbidden
	}
	return b, nil
}

// ListBookings returns the actor's own bookings, or every booking in the
// ledger for admin callers.
func (s *BookingService) ListBookings(ctx context.Context, actorID, actorRole string) ([]model.Booking, error) {
	if actorRole == RoleAdmin {
		return s.store.ListBookings(ctx)
	}
	return s.store.ListBookingsByUser(ctx, actorID)
}

// Stats aggregates the ledger for the admin dashboard.
func (s *BookingService) Stats(ctx context.Context) (*model.BookingStats, error) {
	return s.store.Stats(ctx)
}

// CreateEventParams carries the admin-supplied event definition.
type CreateEventParams struct {
	Title    string        `json:"title"`
	Venue    string        `json:"venue"`
	StartsAt time.Time     `json:"starts_at"`
	SeatRows int           `json:"seat_rows"`
	SeatCols int           `json:"seat_cols"`
	Pricing  model.Pricing `json:"pricing"`
}

// CreateEvent registers a new event with its full seat grid available.
func (s *BookingService) CreateEvent(ctx context.Context, actorID string, p CreateEventParams) (*model.Event, error) {
	if p.Title == "" || p.SeatRows < 1 || p.SeatCols < 1 {
		return nil, fmt.Errorf("%w: title and a positive seat grid are required", repository.ErrInvalidRequest)
	}
	if p.Pricing.VIPCents < 0 || p.Pricing.PremiumCents < 0 || p.Pricing.RegularCents < 0 {
		return nil, fmt.Errorf("%w: prices must not be negative", repository.ErrInvalidRequest)
	}
	ev := &model.Event{
		ID:        uuid.NewString(),
		Title:     p.Title,
		Venue:     p.Venue,
		StartsAt:  p.StartsAt.UTC(),
		SeatRows:  p.SeatRows,
		SeatCols:  p.SeatCols,
		Pricing:   p.Pricing,
		Status:    model.EventUpcoming,
		CreatedBy: actorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// GetEvent returns one event with its booked seat set.
func (s *BookingService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return s.store.GetEvent(ctx, eventID)
}

// ListEvents returns all events.
func (s *BookingService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}
