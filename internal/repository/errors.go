// Package repository defines the storage implementations for the event
// inventory and the booking ledger, plus the error values shared by both.
// Sentinel errors let the handler layer translate failures into precise
// HTTP responses without inspecting error strings.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEventNotFound is returned when the referenced event does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when the referenced booking does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrForbidden is returned when the caller attempts an operation on a
// booking they do not own and they lack an elevated role. Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyCancelled is returned when cancelling a booking that was
// already cancelled. The second attempt is a no-op on inventory; surfacing
// the state keeps the caller from assuming a fresh refund happened.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrInvalidRequest is returned for malformed seat lists: empty requests,
// labels outside the event layout, or duplicates claiming different
// classes or prices for the same seat.
var ErrInvalidRequest = errors.New("invalid request")

// ErrStoreUnavailable wraps transient failures of the underlying store.
// Callers may retry; handlers translate it into an HTTP 503 response.
var ErrStoreUnavailable = errors.New("store unavailable")

// SeatsUnavailableError reports a reservation conflict and names every
// seat identifier that was already taken, so the caller can render an
// actionable message.
type SeatsUnavailableError struct {
	Seats []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats %s are already booked", strings.Join(e.Seats, ", "))
}

// AsSeatsUnavailable unwraps err into a SeatsUnavailableError if it is one.
func AsSeatsUnavailable(err error) (*SeatsUnavailableError, bool) {
	var su *SeatsUnavailableError
	if errors.As(err, &su) {
		return su, true
	}
	return nil, false
}
