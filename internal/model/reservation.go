package model

import "time"

// Reservation groups the tickets booked by one user in a single
// transaction.  A reservation is either absent or fully committed with
// all of its tickets; deleting it removes the tickets as well.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the reservation.
//	CreatedAt – commit timestamp (UTC).
//	Tickets   – seats booked under the reservation.
type Reservation struct {
	ID        uint64    `json:"id"`         // reservations.id
	UserID    uint64    `json:"user_id"`    // reservations.user_id
	CreatedAt time.Time `json:"created_at"` // reservations.created_at
	Tickets   []Ticket  `json:"tickets"`    // tickets.reservation_id
}

// Ticket assigns one seat of a session to a reservation.  No two
// tickets share (SessionID, Row, Seat).
//
// Fields:
//
//	ID            – primary key identifier.
//	Row           – 1-based row inside the session's dome.
//	Seat          – 1-based seat inside the row.
//	SessionID     – session the seat belongs to.
//	ReservationID – owning reservation.
//	Session       – optional session summary for listings.
type Ticket struct {
	ID            uint64         `json:"id"`                // tickets.id
	Row           int            `json:"row"`               // tickets.seat_row
	Seat          int            `json:"seat"`              // tickets.seat_number
	SessionID     uint64         `json:"show_session"`      // tickets.show_session_id
	ReservationID uint64         `json:"reservation"`       // tickets.reservation_id
	Session       *TicketSession `json:"session,omitempty"` // joined summary
}

// TicketSession is the short session description attached to tickets
// in reservation listings.
type TicketSession struct {
	ShowTime  time.Time `json:"show_time"`
	ShowTitle string    `json:"show_title"`
	DomeName  string    `json:"dome_name"`
}
