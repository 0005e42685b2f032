package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// MemoryStore keeps events and bookings in process memory. It is the
// store used in dev mode and in tests. Every reserve/release pair on one
// event is serialized by that event's own mutex, so operations on
// different events proceed independently while two concurrent requests
// for the same seat can never both commit.
//
// Lock order is always event mutex first, then the bookings mutex.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*eventState

	bmu      sync.RWMutex
	bookings map[string]*model.Booking
	order    []string // booking IDs in insertion order
}

type eventState struct {
	mu     sync.Mutex
	event  model.Event
	booked map[string]model.SeatClass // seat label -> class
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]*eventState),
		bookings: make(map[string]*model.Booking),
	}
}

// CreateEvent registers a new event. AvailableSeats is initialized to
// TotalSeats regardless of what the caller set.
func (s *MemoryStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.TotalSeats = ev.SeatRows * ev.SeatCols
	ev.AvailableSeats = ev.TotalSeats
	ev.BookedSeats = nil
	cp := *ev
	s.events[ev.ID] = &eventState{event: cp, booked: make(map[string]model.SeatClass)}
	return nil
}

func (s *MemoryStore) state(eventID string) (*eventState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.events[eventID]
	return st, ok
}

// GetEvent returns a snapshot of the event.
func (s *MemoryStore) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	st, ok := s.state(eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	ev := st.snapshot()
	return &ev, nil
}

// ListEvents returns snapshots of all events ordered by creation time.
func (s *MemoryStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.RLock()
	states := make([]*eventState, 0, len(s.events))
	for _, st := range s.events {
		states = append(states, st)
	}
	s.mu.RUnlock()

	events := make([]model.Event, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		events = append(events, st.snapshot())
		st.mu.Unlock()
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, nil
}

// GetAvailability returns the booked seat set and the derived available
// count for one event.
func (s *MemoryStore) GetAvailability(ctx context.Context, eventID string) (*model.Availability, error) {
	st, ok := s.state(eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	ev := st.snapshot()
	return &model.Availability{
		EventID:        ev.ID,
		TotalSeats:     ev.TotalSeats,
		AvailableSeats: ev.AvailableSeats,
		BookedSeats:    ev.BookedSeats,
	}, nil
}

// snapshot copies the event with its booked seat set materialized in a
// deterministic order. Callers must hold st.mu.
func (st *eventState) snapshot() model.Event {
	ev := st.event
	ev.BookedSeats = make([]model.BookedSeat, 0, len(st.booked))
	for label, class := range st.booked {
		ev.BookedSeats = append(ev.BookedSeats, model.BookedSeat{SeatLabel: label, Class: class})
	}
	sort.Slice(ev.BookedSeats, func(i, j int) bool { return ev.BookedSeats[i].SeatLabel < ev.BookedSeats[j].SeatLabel })
	ev.AvailableSeats = ev.TotalSeats - len(st.booked)
	return ev
}

// CommitReservation atomically marks the booking's seats as taken and
// appends the booking to the ledger. When any requested seat is already
// booked, nothing is written and a SeatsUnavailableError naming every
// conflicting seat is returned.
func (s *MemoryStore) CommitReservation(ctx context.Context, b *model.Booking) error {
	st, ok := s.state(b.EventID)
	if !ok {
		return ErrEventNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	var conflicts []string
	for _, seat := range b.Seats {
		if _, taken := st.booked[seat.SeatLabel]; taken {
			conflicts = append(conflicts, seat.SeatLabel)
		}
	}
	if len(conflicts) > 0 {
		return &SeatsUnavailableError{Seats: conflicts}
	}

	for _, seat := range b.Seats {
		st.booked[seat.SeatLabel] = seat.Class
	}
	st.event.AvailableSeats = st.event.TotalSeats - len(st.booked)

	cp := *b
	cp.Seats = append([]model.BookingSeat(nil), b.Seats...)
	s.bmu.Lock()
	s.bookings[b.ID] = &cp
	s.order = append(s.order, b.ID)
	s.bmu.Unlock()
	return nil
}

// CancelBooking marks the booking cancelled and refunded, then releases
// its seats back into the event inventory. The release is idempotent per
// seat: a label no longer present in the booked set does not change the
// available count, so a raced double cancel can never overflow it.
func (s *MemoryStore) CancelBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	s.bmu.RLock()
	b, ok := s.bookings[bookingID]
	s.bmu.RUnlock()
	if !ok {
		return nil, ErrBookingNotFound
	}

	st, ok := s.state(b.EventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	s.bmu.Lock()
	defer s.bmu.Unlock()

	if b.Status == model.BookingCancelled {
		return nil, ErrAlreadyCancelled
	}
	b.Status = model.BookingCancelled
	b.PaymentStatus = model.PaymentRefunded
	b.UpdatedAt = time.Now().UTC()

	for _, seat := range b.Seats {
		delete(st.booked, seat.SeatLabel)
	}
	st.event.AvailableSeats = st.event.TotalSeats - len(st.booked)

	cp := *b
	cp.Seats = append([]model.BookingSeat(nil), b.Seats...)
	return &cp, nil
}

// GetBooking returns a copy of the booking with the given ID.
func (s *MemoryStore) GetBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	s.bmu.RLock()
	defer s.bmu.RUnlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	cp.Seats = append([]model.BookingSeat(nil), b.Seats...)
	return &cp, nil
}

// ListBookingsByUser returns the user's bookings, newest first.
func (s *MemoryStore) ListBookingsByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return s.list(func(b *model.Booking) bool { return b.UserID == userID })
}

// ListBookings returns every booking in the ledger, newest first.
func (s *MemoryStore) ListBookings(ctx context.Context) ([]model.Booking, error) {
	return s.list(func(*model.Booking) bool { return true })
}

func (s *MemoryStore) list(keep func(*model.Booking) bool) ([]model.Booking, error) {
	s.bmu.RLock()
	defer s.bmu.RUnlock()
	out := make([]model.Booking, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.bookings[s.order[i]]
		if !keep(b) {
			continue
		}
		cp := *b
		cp.Seats = append([]model.BookingSeat(nil), b.Seats...)
		out = append(out, cp)
	}
	return out, nil
}

// Stats aggregates the ledger for the dashboard. Revenue sums confirmed
// bookings only; cancelled amounts are excluded.
func (s *MemoryStore) Stats(ctx context.Context) (*model.BookingStats, error) {
	s.bmu.RLock()
	defer s.bmu.RUnlock()
	stats := &model.BookingStats{}
	for _, b := range s.bookings {
		stats.TotalBookings++
		switch b.Status {
		case model.BookingConfirmed:
			stats.ConfirmedBookings++
			stats.TotalRevenueCents += b.TotalAmountCents
		case model.BookingCancelled:
			stats.CancelledBookings++
		}
	}
	return stats, nil
}
