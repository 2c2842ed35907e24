package booking

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the reservation core.  Handlers translate
// them into HTTP responses; every other failure is wrapped in StoreError.
var (
	// ErrInvalidSeat means a row or seat lies outside the dome grid.
	ErrInvalidSeat = errors.New("invalid seat")
	// ErrSeatAlreadyTaken means the seat is booked already or requested twice in one batch.
	ErrSeatAlreadyTaken = errors.New("seat already taken")
	// ErrEmptyBatch means a reservation without tickets was requested.
	ErrEmptyBatch = errors.New("reservation must contain at least one ticket")
	// ErrSessionNotFound means a ticket references an unknown show session.
	ErrSessionNotFound = errors.New("show session not found")
	// ErrReservationNotFound means the reservation does not exist or is outside the caller's scope.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrTicketNotFound means the ticket is not part of the reservation.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrInvalidDome means a dome has no rows or no seats per row.
	ErrInvalidDome = errors.New("invalid dome geometry")
	// ErrStoreFailure marks infrastructure failures of the persistent store.
	ErrStoreFailure = errors.New("store failure")
)

// SeatRangeError reports which coordinate of a seat fell outside the
// dome and what the allowed range was.
type SeatRangeError struct {
	Field string // "row" or "seat"
	Value int
	Max   int
}

func (e *SeatRangeError) Error() string {
	return fmt.Sprintf("%s number must be in available range: (1, %d), got %d", e.Field, e.Max, e.Value)
}

func (e *SeatRangeError) Unwrap() error { return ErrInvalidSeat }

// TicketError names the request of a batch that caused the whole batch
// to be rejected.  Index is the zero-based position in the batch.
type TicketError struct {
	Index   int
	Request TicketRequest
	Err     error
}

func (e *TicketError) Error() string {
	return fmt.Sprintf("ticket %d (show_session %d, row %d, seat %d): %v",
		e.Index, e.Request.SessionID, e.Request.Row, e.Request.Seat, e.Err)
}

func (e *TicketError) Unwrap() error { return e.Err }

// SeatTakenError is returned by Tx.InsertTickets when the store's unique
// key on (session, row, seat) rejects a ticket.
type SeatTakenError struct {
	SessionID uint64
	Seat      Seat
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("show_session %d row %d seat %d is already taken", e.SessionID, e.Seat.Row, e.Seat.Seat)
}

func (e *SeatTakenError) Unwrap() error { return ErrSeatAlreadyTaken }

// StoreError wraps an infrastructure failure.  It matches ErrStoreFailure
// with errors.Is and still exposes the cause through Unwrap.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreFailure }

// storeFailure leaves domain errors untouched and wraps everything else.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var ticketErr *TicketError
	switch {
	case errors.As(err, &ticketErr),
		errors.Is(err, ErrInvalidSeat),
		errors.Is(err, ErrSeatAlreadyTaken),
		errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrReservationNotFound),
		errors.Is(err, ErrTicketNotFound),
		errors.Is(err, ErrStoreFailure):
		return err
	}
	return &StoreError{Op: op, Err: err}
}
