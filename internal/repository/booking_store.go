package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// CommitReservation writes the booking and its seat claims in a single
// transaction. The event row is locked FOR UPDATE first, so the conflict
// check and the inventory update form one atomic unit per event. On any
// conflict the transaction rolls back and nothing is committed.
func (s *SQLStore) CommitReservation(ctx context.Context, b *model.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the event row; this serializes all reserve/release calls for
	// the same event while other events proceed independently.
	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT available_seats FROM events WHERE id = ? FOR UPDATE`, b.EventID,
	).Scan(&available)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrEventNotFound
		}
		return storeErr("lock event", err)
	}

	labels := b.SeatLabels()
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
	args := make([]any, 0, len(labels)+1)
	args = append(args, b.EventID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_label FROM booked_seats WHERE event_id = ? AND seat_label IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return storeErr("check seats", err)
	}
	var conflicts []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			rows.Close()
			return storeErr("scan conflict", err)
		}
		conflicts = append(conflicts, label)
	}
	if err := rows.Close(); err != nil {
		return storeErr("check seats", err)
	}
	if len(conflicts) > 0 {
		return &SeatsUnavailableError{Seats: conflicts}
	}

	insertSeats := `INSERT INTO booked_seats (event_id, seat_label, seat_class, booking_id) VALUES `
	seatArgs := make([]any, 0, len(b.Seats)*4)
	for i, seat := range b.Seats {
		if i > 0 {
			insertSeats += ","
		}
		insertSeats += "(?, ?, ?, ?)"
		seatArgs = append(seatArgs, b.EventID, seat.SeatLabel, seat.Class, b.ID)
	}
	if _, err := tx.ExecContext(ctx, insertSeats, seatArgs...); err != nil {
		return storeErr("insert booked seats", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET available_seats = available_seats - ? WHERE id = ?`,
		len(b.Seats), b.EventID); err != nil {
		return storeErr("update available count", err)
	}

	const insertBooking = `INSERT INTO bookings
		(id, event_id, user_id, status, payment_status, total_amount_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertBooking,
		b.ID, b.EventID, b.UserID, b.Status, b.PaymentStatus, b.TotalAmountCents,
		b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		b.UpdatedAt.UTC().Format("2006-01-02 15:04:05")); err != nil {
		return storeErr("insert booking", err)
	}

	insertItems := `INSERT INTO booking_seats (booking_id, seat_label, seat_class, price_cents) VALUES `
	itemArgs := make([]any, 0, len(b.Seats)*4)
	for i, seat := range b.Seats {
		if i > 0 {
			insertItems += ","
		}
		insertItems += "(?, ?, ?, ?)"
		itemArgs = append(itemArgs, b.ID, seat.SeatLabel, seat.Class, seat.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, insertItems, itemArgs...); err != nil {
		return storeErr("insert booking seats", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit reservation", err)
	}
	committed = true
	return nil
}

// CancelBooking flips the booking to cancelled/refunded and returns its
// seats to the inventory, all in one transaction. Seats no longer present
// in booked_seats are skipped and the available count grows only by the
// number of rows actually removed, so a repeated release cannot overflow
// the count.
func (s *SQLStore) CancelBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var b model.Booking
	err = tx.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, status, payment_status, total_amount_cents, created_at, updated_at
		 FROM bookings WHERE id = ? FOR UPDATE`, bookingID,
	).Scan(&b.ID, &b.EventID, &b.UserID, &b.Status, &b.PaymentStatus,
		&b.TotalAmountCents, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, storeErr("lock booking", err)
	}
	if b.Status == model.BookingCancelled {
		return nil, ErrAlreadyCancelled
	}

	// Lock the event row so the release serializes with concurrent reserves.
	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM events WHERE id = ? FOR UPDATE`, b.EventID); err != nil {
		return nil, storeErr("lock event", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM booked_seats WHERE event_id = ? AND booking_id = ?`, b.EventID, b.ID)
	if err != nil {
		return nil, storeErr("release seats", err)
	}
	released, err := res.RowsAffected()
	if err != nil {
		return nil, storeErr("release seats", err)
	}
	if released > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET available_seats = available_seats + ? WHERE id = ?`,
			released, b.EventID); err != nil {
			return nil, storeErr("update available count", err)
		}
	}

	b.Status = model.BookingCancelled
	b.PaymentStatus = model.PaymentRefunded
	b.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?`,
		b.Status, b.PaymentStatus, b.UpdatedAt.Format("2006-01-02 15:04:05"), b.ID); err != nil {
		return nil, storeErr("update booking", err)
	}

	if b.Seats, err = s.bookingSeatsTx(ctx, tx, b.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit cancellation", err)
	}
	committed = true
	return &b, nil
}

// GetBooking loads one booking with its seat snapshot.
func (s *SQLStore) GetBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	var b model.Booking
	err := s.db.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, status, payment_status, total_amount_cents, created_at, updated_at
		 FROM bookings WHERE id = ?`, bookingID,
	).Scan(&b.ID, &b.EventID, &b.UserID, &b.Status, &b.PaymentStatus,
		&b.TotalAmountCents, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, storeErr("select booking", err)
	}
	if b.Seats, err = s.bookingSeats(ctx, b.ID); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBookingsByUser returns the user's bookings, newest first.
func (s *SQLStore) ListBookingsByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return s.listBookings(ctx, `WHERE user_id = ?`, userID)
}

// ListBookings returns every booking in the ledger, newest first.
func (s *SQLStore) ListBookings(ctx context.Context) ([]model.Booking, error) {
	return s.listBookings(ctx, ``)
}

func (s *SQLStore) listBookings(ctx context.Context, where string, args ...any) ([]model.Booking, error) {
	q := `SELECT id, event_id, user_id, status, payment_status, total_amount_cents, created_at, updated_at
	      FROM bookings ` + where + ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("list bookings", err)
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	index := make(map[string]int)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.EventID, &b.UserID, &b.Status, &b.PaymentStatus,
			&b.TotalAmountCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, storeErr("scan booking", err)
		}
		b.Seats = []model.BookingSeat{}
		index[b.ID] = len(bookings)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list bookings", err)
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	// Populate seats for all bookings in a single query.
	ids := make([]any, 0, len(bookings))
	placeholders := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT booking_id, seat_label, seat_class, price_cents
	          FROM booking_seats
	          WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY booking_id, seat_label`
	srows, err := s.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, storeErr("list booking seats", err)
	}
	defer srows.Close()
	for srows.Next() {
		var bid string
		var seat model.BookingSeat
		if err := srows.Scan(&bid, &seat.SeatLabel, &seat.Class, &seat.PriceCents); err != nil {
			return nil, storeErr("scan booking seat", err)
		}
		if idx, ok := index[bid]; ok {
			bookings[idx].Seats = append(bookings[idx].Seats, seat)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, storeErr("list booking seats", err)
	}
	return bookings, nil
}

func (s *SQLStore) bookingSeats(ctx context.Context, bookingID string) ([]model.BookingSeat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seat_label, seat_class, price_cents FROM booking_seats WHERE booking_id = ? ORDER BY seat_label`,
		bookingID)
	if err != nil {
		return nil, storeErr("select booking seats", err)
	}
	return scanBookingSeats(rows)
}

func (s *SQLStore) bookingSeatsTx(ctx context.Context, tx *sql.Tx, bookingID string) ([]model.BookingSeat, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_label, seat_class, price_cents FROM booking_seats WHERE booking_id = ? ORDER BY seat_label`,
		bookingID)
	if err != nil {
		return nil, storeErr("select booking seats", err)
	}
	return scanBookingSeats(rows)
}

func scanBookingSeats(rows *sql.Rows) ([]model.BookingSeat, error) {
	defer rows.Close()
	seats := make([]model.BookingSeat, 0)
	for rows.Next() {
		var seat model.BookingSeat
		if err := rows.Scan(&seat.SeatLabel, &seat.Class, &seat.PriceCents); err != nil {
			return nil, storeErr("scan booking seat", err)
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select booking seats", err)
	}
	return seats, nil
}

// Stats aggregates the ledger for the dashboard; revenue counts confirmed
// bookings only.
func (s *SQLStore) Stats(ctx context.Context) (*model.BookingStats, error) {
	const q = `SELECT COUNT(*),
	                  COALESCE(SUM(status = 'confirmed'), 0),
	                  COALESCE(SUM(status = 'cancelled'), 0),
	                  COALESCE(SUM(CASE WHEN status = 'confirmed' THEN total_amount_cents ELSE 0 END), 0)
	           FROM bookings`
	var stats model.BookingStats
	if err := s.db.QueryRowContext(ctx, q).Scan(
		&stats.TotalBookings, &stats.ConfirmedBookings,
		&stats.CancelledBookings, &stats.TotalRevenueCents); err != nil {
		return nil, storeErr("aggregate stats", err)
	}
	return &stats, nil
}
