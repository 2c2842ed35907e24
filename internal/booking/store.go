package booking

import (
	"context"
	"time"

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/model"
)

// Seat addresses one place of a dome.
type Seat struct {
	Row  int `json:"row"`
	Seat int `json:"seat"`
}

// TicketRequest asks for one seat of one session.
type TicketRequest struct {
	Row       int
	Seat      int
	SessionID uint64
}

func (r TicketRequest) seat() Seat { return Seat{Row: r.Row, Seat: r.Seat} }

// ReservationQuery describes one page of reservations inside a scope.
// Results are ordered newest first.
type ReservationQuery struct {
	Scope  access.Scope
	Limit  int
	Offset int
}

// Store is the data-access boundary of the reservation core.
type Store interface {
	// WithinTx runs fn in one atomic unit.  When fn returns an error
	// nothing written through the Tx is kept.
	WithinTx(ctx context.Context, fn func(Tx) error) error
	// SessionSnapshot returns a session with its dome and the seats
	// already ticketed, read from one consistent view of the store.
	SessionSnapshot(ctx context.Context, sessionID uint64) (model.Session, []Seat, error)
	// ListReservations returns one page of reservations and the total
	// number of reservations inside the scope.
	ListReservations(ctx context.Context, q ReservationQuery) ([]model.Reservation, int, error)
	// GetReservation returns ErrReservationNotFound when the reservation
	// is missing or outside the scope.
	GetReservation(ctx context.Context, id uint64, scope access.Scope) (model.Reservation, error)
}

// Tx is the transactional view used while booking.
type Tx interface {
	// LockSession loads the session and its dome and holds it exclusively
	// until the transaction ends.  Unknown ids yield ErrSessionNotFound.
	LockSession(ctx context.Context, sessionID uint64) (model.Session, error)
	// TakenSeats lists the seats already ticketed for the session.
	TakenSeats(ctx context.Context, sessionID uint64) ([]Seat, error)
	// InsertReservation creates the reservation row and returns its id.
	InsertReservation(ctx context.Context, userID uint64, createdAt time.Time) (uint64, error)
	// InsertTickets stores the tickets and returns them with ids assigned.
	// A unique-key collision is reported as *SeatTakenError.
	InsertTickets(ctx context.Context, reservationID uint64, tickets []model.Ticket) ([]model.Ticket, error)
}

// Notifier is told about every committed reservation.
type Notifier interface {
	ReservationCreated(ctx context.Context, owner access.Principal, r model.Reservation) error
}
