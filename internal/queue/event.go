// Package queue carries reservation events over RabbitMQ: the payload
// types, the publisher used by the booking service and the background
// consumer that writes logs/booking.log.
package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/model"
)

// ReservationCreatedQueue is the default durable queue name.
const ReservationCreatedQueue = "reservation_created"

// ReservationCreatedEvent is published after a reservation commits.  It
// contains enough information for downstream consumers to log or notify
// without querying the primary database.
type ReservationCreatedEvent struct {
	EventID       string        `json:"event_id"`
	ReservationID uint64        `json:"reservation_id"`
	UserID        uint64        `json:"user_id"`
	UserEmail     string        `json:"user_email"`
	CreatedAt     time.Time     `json:"created_at"`
	Tickets       []EventTicket `json:"tickets"`
}

// EventTicket is one booked seat inside a ReservationCreatedEvent.
type EventTicket struct {
	TicketID  uint64 `json:"ticket_id"`
	SessionID uint64 `json:"show_session"`
	Row       int    `json:"row"`
	Seat      int    `json:"seat"`
}

// NewReservationCreatedEvent builds the event for a committed reservation
// with a fresh event id.
func NewReservationCreatedEvent(owner access.Principal, r model.Reservation) ReservationCreatedEvent {
	ev := ReservationCreatedEvent{
		EventID:       uuid.New().String(),
		ReservationID: r.ID,
		UserID:        r.UserID,
		UserEmail:     owner.Email,
		CreatedAt:     r.CreatedAt.UTC(),
		Tickets:       make([]EventTicket, 0, len(r.Tickets)),
	}
	for _, t := range r.Tickets {
		ev.Tickets = append(ev.Tickets, EventTicket{TicketID: t.ID, SessionID: t.SessionID, Row: t.Row, Seat: t.Seat})
	}
	return ev
}

// SeatLabels renders the tickets as "session/row-seat" labels.
func (ev ReservationCreatedEvent) SeatLabels() []string {
	out := make([]string, 0, len(ev.Tickets))
	for _, t := range ev.Tickets {
		out = append(out, fmt.Sprintf("%d/%d-%d", t.SessionID, t.Row, t.Seat))
	}
	return out
}

// LogLine formats the event as a single human-friendly line ending in "\n".
func (ev ReservationCreatedEvent) LogLine() string {
	return fmt.Sprintf("[%s] Reservation created | reservation_id=%d | user_id=%d | email=%q | tickets=%d | seats=[%s] | event_id=%s\n",
		ev.CreatedAt.Format(time.RFC3339), ev.ReservationID, ev.UserID, ev.UserEmail,
		len(ev.Tickets), strings.Join(ev.SeatLabels(), ","), ev.EventID)
}
