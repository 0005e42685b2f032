package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// SQLStore persists events and bookings in MySQL. All reserve/release
// operations on one event run inside a transaction that locks the event
// row FOR UPDATE, which serializes the check-availability/commit pair per
// event while leaving other events untouched. The primary key on
// booked_seats (event_id, seat_label) rejects a double booking even if a
// future code path ever bypassed the row lock.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a SQLStore bound to the given database handle.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// storeErr wraps infrastructure failures as ErrStoreUnavailable so the
// caller can distinguish retryable store trouble from domain errors.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// CreateEvent inserts a new event with its available count initialized to
// the full seat grid.
func (s *SQLStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	ev.TotalSeats = ev.SeatRows * ev.SeatCols
	ev.AvailableSeats = ev.TotalSeats
	const q = `INSERT INTO events
	           (id, title, venue, starts_at, seat_rows, seat_cols,
	            price_vip_cents, price_premium_cents, price_regular_cents,
	            total_seats, available_seats, status, created_by, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		ev.ID, ev.Title, ev.Venue, ev.StartsAt.UTC().Format("2006-01-02 15:04:05"),
		ev.SeatRows, ev.SeatCols,
		ev.Pricing.VIPCents, ev.Pricing.PremiumCents, ev.Pricing.RegularCents,
		ev.TotalSeats, ev.AvailableSeats, ev.Status, ev.CreatedBy,
		ev.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return storeErr("insert event", err)
	}
	return nil
}

const eventColumns = `id, title, venue, starts_at, seat_rows, seat_cols,
	price_vip_cents, price_premium_cents, price_regular_cents,
	total_seats, available_seats, status, created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var ev model.Event
	err := row.Scan(
		&ev.ID, &ev.Title, &ev.Venue, &ev.StartsAt, &ev.SeatRows, &ev.SeatCols,
		&ev.Pricing.VIPCents, &ev.Pricing.PremiumCents, &ev.Pricing.RegularCents,
		&ev.TotalSeats, &ev.AvailableSeats, &ev.Status, &ev.CreatedBy, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// GetEvent loads one event together with its booked seat set.
func (s *SQLStore) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, eventID)
	ev, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, storeErr("select event", err)
	}
	if ev.BookedSeats, err = s.bookedSeats(ctx, eventID); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListEvents returns all events without their booked seat sets; callers
// needing the full inventory use GetEvent or GetAvailability.
func (s *SQLStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at`)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, storeErr("scan event", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list events", err)
	}
	return events, nil
}

// GetAvailability returns the booked seat set and available count for one
// event as a read-only snapshot.
func (s *SQLStore) GetAvailability(ctx context.Context, eventID string) (*model.Availability, error) {
	var av model.Availability
	err := s.db.QueryRowContext(ctx,
		`SELECT id, total_seats, available_seats FROM events WHERE id = ?`, eventID,
	).Scan(&av.EventID, &av.TotalSeats, &av.AvailableSeats)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, storeErr("select availability", err)
	}
	if av.BookedSeats, err = s.bookedSeats(ctx, eventID); err != nil {
		return nil, err
	}
	return &av, nil
}

func (s *SQLStore) bookedSeats(ctx context.Context, eventID string) ([]model.BookedSeat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seat_label, seat_class FROM booked_seats WHERE event_id = ? ORDER BY seat_label`, eventID)
	if err != nil {
		return nil, storeErr("select booked seats", err)
	}
	defer rows.Close()
	seats := make([]model.BookedSeat, 0)
	for rows.Next() {
		var bs model.BookedSeat
		if err := rows.Scan(&bs.SeatLabel, &bs.Class); err != nil {
			return nil, storeErr("scan booked seat", err)
		}
		seats = append(seats, bs)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select booked seats", err)
	}
	return seats, nil
}
