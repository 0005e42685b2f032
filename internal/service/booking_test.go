package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []queue.BookingConfirmedEvent
	cancelled []queue.BookingCancelledEvent
}

func (p *recordingPublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, ev)
	return nil
}

func (p *recordingPublisher) PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, ev)
	return nil
}

func newTestService(t *testing.T) (*BookingService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return NewBookingService(repository.NewMemoryStore(), nil, pub), pub
}

func createTestEvent(t *testing.T, svc *BookingService, rows, cols int) *model.Event {
	t.Helper()
	ev, err := svc.CreateEvent(context.Background(), "admin-1", CreateEventParams{
		Title:    "Jazz Night",
		Venue:    "Blue Hall",
		StartsAt: time.Now().Add(48 * time.Hour),
		SeatRows: rows,
		SeatCols: cols,
		Pricing:  model.Pricing{VIPCents: 500, PremiumCents: 300, RegularCents: 150},
	})
	require.NoError(t, err)
	return ev
}

func TestCreateBookingPricesFromEventTable(t *testing.T) {
	svc, pub := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)

	b, err := svc.CreateBooking(context.Background(), "user-1", ev.ID, []SeatRequest{
		{SeatLabel: "A1"}, {SeatLabel: "A2"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, model.PaymentPaid, b.PaymentStatus)
	// Rows A and B of a 2-row layout are both vip.
	assert.Equal(t, int64(1000), b.TotalAmountCents)
	for _, seat := range b.Seats {
		assert.Equal(t, model.SeatClassVIP, seat.Class)
		assert.Equal(t, int64(500), seat.PriceCents)
	}

	got, err := svc.GetEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSeats)

	require.Len(t, pub.confirmed, 1)
	assert.Equal(t, b.ID, pub.confirmed[0].BookingID)
	assert.Equal(t, []string{"A1", "A2"}, pub.confirmed[0].SeatLabels)
	assert.Equal(t, int64(1000), pub.confirmed[0].TotalAmountCents)
}

func TestCreateBookingRejectsMismatchedClassOrPrice(t *testing.T) {
	svc, _ := newTestService(t)
	ev := createTestEvent(t, svc, 6, 4)

	// F1 is row index 5, a regular seat at 150.
	_, err := svc.CreateBooking(context.Background(), "user-1", ev.ID, []SeatRequest{
		{SeatLabel: "F1", Class: model.SeatClassVIP},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	_, err = svc.CreateBooking(context.Background(), "user-1", ev.ID, []SeatRequest{
		{SeatLabel: "F1", PriceCents: 1},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	// Matching hints are accepted.
	b, err := svc.CreateBooking(context.Background(), "user-1", ev.ID, []SeatRequest{
		{SeatLabel: "F1", Class: model.SeatClassRegular, PriceCents: 150},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(150), b.TotalAmountCents)
}

func TestCreateBookingValidation(t *testing.T) {
	svc, pub := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, "", ev.ID, []SeatRequest{{SeatLabel: "A1"}})
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	_, err = svc.CreateBooking(ctx, "user-1", ev.ID, nil)
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	_, err = svc.CreateBooking(ctx, "user-1", "missing", []SeatRequest{{SeatLabel: "A1"}})
	assert.ErrorIs(t, err, repository.ErrEventNotFound)

	// C1 is outside the 2x2 layout.
	_, err = svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "C1"}})
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	_, err = svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "A3"}})
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	assert.Empty(t, pub.confirmed, "no events for rejected requests")
}

func TestCreateBookingDeduplicatesRepeatedSeat(t *testing.T) {
	svc, _ := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)

	b, err := svc.CreateBooking(context.Background(), "user-1", ev.ID, []SeatRequest{
		{SeatLabel: "A1"}, {SeatLabel: "A1"},
	})
	require.NoError(t, err)
	assert.Len(t, b.Seats, 1)
	assert.Equal(t, int64(500), b.TotalAmountCents)

	// The same seat with conflicting details is an error, not a dedupe.
	_, err = svc.CreateBooking(context.Background(), "user-1", ev.ID, []SeatRequest{
		{SeatLabel: "A2"}, {SeatLabel: "A2", PriceCents: 500},
	})
	require.NoError(t, err, "matching price hint dedupes cleanly")
}

func TestCreateBookingCanonicalizesSeatLabels(t *testing.T) {
	svc, _ := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)
	ctx := context.Background()

	// Alias spellings of one seat dedupe to a single canonical entry.
	b, err := svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{
		{SeatLabel: "A1"}, {SeatLabel: "a1"}, {SeatLabel: "A01"},
	})
	require.NoError(t, err)
	require.Len(t, b.Seats, 1)
	assert.Equal(t, "A1", b.Seats[0].SeatLabel)
	assert.Equal(t, int64(500), b.TotalAmountCents)

	// Aliases of a booked seat must conflict, not commit.
	for _, alias := range []string{"a1", "A01", " a01 "} {
		_, err := svc.CreateBooking(ctx, "user-2", ev.ID, []SeatRequest{{SeatLabel: alias}})
		su, ok := repository.AsSeatsUnavailable(err)
		require.True(t, ok, "alias %q of a booked seat must conflict, got %v", alias, err)
		assert.Equal(t, []string{"A1"}, su.Seats)
	}

	got, err := svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSeats)
	require.Len(t, got.BookedSeats, 1)
}

func TestCreateBookingSeatConflict(t *testing.T) {
	svc, pub := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "A1"}})
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, "user-2", ev.ID, []SeatRequest{{SeatLabel: "A1"}, {SeatLabel: "B1"}})
	su, ok := repository.AsSeatsUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, []string{"A1"}, su.Seats)

	got, err := svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSeats, "rejected booking must not consume B1")
	assert.Len(t, pub.confirmed, 1)
}

func TestConcurrentBookingsSingleWinner(t *testing.T) {
	svc, pub := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), fmt.Sprintf("user-%d", i), ev.ID, []SeatRequest{{SeatLabel: "A1"}})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
	assert.Len(t, pub.confirmed, 1)
}

func TestCancelBookingRestoresInventory(t *testing.T) {
	svc, pub := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "A1"}, {SeatLabel: "A2"}})
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(ctx, "user-1", "", b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.Equal(t, model.PaymentRefunded, cancelled.PaymentStatus)

	got, err := svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.AvailableSeats)

	// The released seats can be booked again right away.
	_, err = svc.CreateBooking(ctx, "user-2", ev.ID, []SeatRequest{{SeatLabel: "A1"}})
	require.NoError(t, err)

	require.Len(t, pub.cancelled, 1)
	assert.Equal(t, b.ID, pub.cancelled[0].BookingID)
	assert.Equal(t, int64(1000), pub.cancelled[0].RefundCents)
}

func TestCancelBookingAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "A1"}})
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, "user-2", "customer", b.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	// Admins may cancel any booking.
	_, err = svc.CancelBooking(ctx, "user-2", RoleAdmin, b.ID)
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, "user-1", "", b.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
}

func TestGetBookingAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "A1"}})
	require.NoError(t, err)

	_, err = svc.GetBooking(ctx, "user-1", "", b.ID)
	require.NoError(t, err)

	_, err = svc.GetBooking(ctx, "user-2", "", b.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = svc.GetBooking(ctx, "user-2", RoleAdmin, b.ID)
	require.NoError(t, err)

	_, err = svc.GetBooking(ctx, "user-1", "", "missing")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestListBookingsScope(t *testing.T) {
	svc, _ := newTestService(t)
	ev := createTestEvent(t, svc, 3, 3)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "A1"}})
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, "user-2", ev.ID, []SeatRequest{{SeatLabel: "A2"}})
	require.NoError(t, err)

	mine, err := svc.ListBookings(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.ListBookings(ctx, "admin-1", RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStatsDashboard(t *testing.T) {
	svc, _ := newTestService(t)
	ev := createTestEvent(t, svc, 6, 6)
	ctx := context.Background()

	// Two vip seats, one premium seat, one cancelled regular pair.
	_, err := svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "A1"}, {SeatLabel: "A2"}})
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, "user-2", ev.ID, []SeatRequest{{SeatLabel: "C1"}})
	require.NoError(t, err)
	b3, err := svc.CreateBooking(ctx, "user-3", ev.ID, []SeatRequest{{SeatLabel: "F1"}, {SeatLabel: "F2"}})
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, "user-3", "", b3.ID)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBookings)
	assert.Equal(t, 2, stats.ConfirmedBookings)
	assert.Equal(t, 1, stats.CancelledBookings)
	assert.Equal(t, int64(1300), stats.TotalRevenueCents, "2x500 vip + 300 premium, cancelled excluded")
}

func TestCreateEventValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, "admin-1", CreateEventParams{Title: "", SeatRows: 2, SeatCols: 2})
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	_, err = svc.CreateEvent(ctx, "admin-1", CreateEventParams{Title: "X", SeatRows: 0, SeatCols: 2})
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	_, err = svc.CreateEvent(ctx, "admin-1", CreateEventParams{
		Title: "X", SeatRows: 2, SeatCols: 2,
		Pricing: model.Pricing{VIPCents: -1},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)

	ev, err := svc.CreateEvent(ctx, "admin-1", CreateEventParams{Title: "X", SeatRows: 2, SeatCols: 3})
	require.NoError(t, err)
	assert.Equal(t, 6, ev.TotalSeats)
	assert.Equal(t, 6, ev.AvailableSeats)
	assert.Equal(t, model.EventUpcoming, ev.Status)
	assert.Equal(t, "admin-1", ev.CreatedBy)
}

func TestAvailabilityWithoutCache(t *testing.T) {
	svc, _ := newTestService(t)
	ev := createTestEvent(t, svc, 2, 2)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, "user-1", ev.ID, []SeatRequest{{SeatLabel: "B2"}})
	require.NoError(t, err)

	av, err := svc.Availability(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, av.TotalSeats)
	assert.Equal(t, 3, av.AvailableSeats)
	require.Len(t, av.BookedSeats, 1)
	assert.Equal(t, "B2", av.BookedSeats[0].SeatLabel)

	_, err = svc.Availability(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}
