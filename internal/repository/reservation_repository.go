package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/model"
)

// Compile-time check that ReservationRepo satisfies booking.Store.
var _ booking.Store = (*ReservationRepo)(nil)

// ReservationRepo is the MySQL implementation of booking.Store.
// Reservations group together one or more tickets; tickets reference
// their session and are unique per (session, row, seat) through the
// uq_tickets_seat key.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Queries issued by ReservationRepo.  They are exported so tests can
// expect them verbatim.
const (
	// QueryLockSession loads a session with its show title and dome and
	// takes an exclusive row lock on the session until commit.
	QueryLockSession = `SELECT ss.id, ss.show_time, ss.astronomy_show_id, a.title, d.id, d.name, d.row_count, d.seats_in_row
FROM show_sessions ss
JOIN astronomy_shows a ON a.id = ss.astronomy_show_id
JOIN planetarium_domes d ON d.id = ss.planetarium_dome_id
WHERE ss.id = ?
FOR UPDATE OF ss`

	// QuerySession is QueryLockSession without the lock.
	QuerySession = `SELECT ss.id, ss.show_time, ss.astronomy_show_id, a.title, d.id, d.name, d.row_count, d.seats_in_row
FROM show_sessions ss
JOIN astronomy_shows a ON a.id = ss.astronomy_show_id
JOIN planetarium_domes d ON d.id = ss.planetarium_dome_id
WHERE ss.id = ?`

	QueryTakenSeats = `SELECT seat_row, seat_number FROM tickets WHERE show_session_id = ? ORDER BY seat_row, seat_number`

	QueryInsertReservation = `INSERT INTO reservations (user_id, created_at) VALUES (?, ?)`

	QueryInsertTicketsPrefix = `INSERT INTO tickets (seat_row, seat_number, show_session_id, reservation_id) VALUES `

	QueryTicketsByReservation = `SELECT id, seat_row, seat_number, show_session_id FROM tickets WHERE reservation_id = ? ORDER BY id`

	QueryCountReservations      = `SELECT COUNT(*) FROM reservations`
	QueryCountReservationsOwned = `SELECT COUNT(*) FROM reservations WHERE user_id = ?`

	QueryListReservations      = `SELECT id, user_id, created_at FROM reservations ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	QueryListReservationsOwned = `SELECT id, user_id, created_at FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	QueryGetReservation      = `SELECT id, user_id, created_at FROM reservations WHERE id = ?`
	QueryGetReservationOwned = `SELECT id, user_id, created_at FROM reservations WHERE id = ? AND user_id = ?`

	// QueryTicketDetailsPrefix is completed with an IN list of
	// reservation ids and a closing ORDER BY.
	QueryTicketDetailsPrefix = `SELECT t.id, t.seat_row, t.seat_number, t.show_session_id, t.reservation_id, ss.show_time, a.title, d.name
FROM tickets t
JOIN show_sessions ss ON ss.id = t.show_session_id
JOIN astronomy_shows a ON a.id = ss.astronomy_show_id
JOIN planetarium_domes d ON d.id = ss.planetarium_dome_id
WHERE t.reservation_id IN `
	QueryTicketDetailsSuffix = ` ORDER BY t.reservation_id, t.id`
)

// WithinTx runs fn inside a database transaction.  The transaction is
// committed when fn returns nil and rolled back otherwise.
func (r *ReservationRepo) WithinTx(ctx context.Context, fn func(booking.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&reservationTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SessionSnapshot reads the session and its taken seats inside one
// read-only transaction so both come from the same snapshot.
func (r *ReservationRepo) SessionSnapshot(ctx context.Context, sessionID uint64) (model.Session, []booking.Seat, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return model.Session{}, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	s, err := scanSession(tx.QueryRowContext(ctx, QuerySession, sessionID))
	if err != nil {
		return model.Session{}, nil, err
	}
	taken, err := takenSeats(ctx, tx, sessionID)
	if err != nil {
		return model.Session{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return model.Session{}, nil, err
	}
	return s, taken, nil
}

// ListReservations returns one page of reservations inside the scope,
// newest first, with their tickets and session summaries attached.  The
// count and the page are read from one snapshot so they agree.
func (r *ReservationRepo) ListReservations(ctx context.Context, q booking.ReservationQuery) ([]model.Reservation, int, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if q.Scope.OwnerID != nil {
		err = tx.QueryRowContext(ctx, QueryCountReservationsOwned, *q.Scope.OwnerID).Scan(&total)
	} else {
		err = tx.QueryRowContext(ctx, QueryCountReservations).Scan(&total)
	}
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		if err := tx.Commit(); err != nil {
			return nil, 0, err
		}
		return []model.Reservation{}, 0, nil
	}

	out, err := listPage(ctx, tx, q)
	if err != nil {
		return nil, 0, err
	}
	if err := attachTickets(ctx, tx, out); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func listPage(ctx context.Context, q queryer, rq booking.ReservationQuery) ([]model.Reservation, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if rq.Scope.OwnerID != nil {
		rows, err = q.QueryContext(ctx, QueryListReservationsOwned, *rq.Scope.OwnerID, rq.Limit, rq.Offset)
	} else {
		rows, err = q.QueryContext(ctx, QueryListReservations, rq.Limit, rq.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0, rq.Limit)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.CreatedAt); err != nil {
			return nil, err
		}
		res.Tickets = []model.Ticket{}
		out = append(out, res)
	}
	return out, rows.Err()
}

// GetReservation loads one reservation inside the scope.  A reservation
// owned by someone else is reported exactly like a missing one.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64, scope access.Scope) (model.Reservation, error) {
	var row *sql.Row
	if scope.OwnerID != nil {
		row = r.db.QueryRowContext(ctx, QueryGetReservationOwned, id, *scope.OwnerID)
	} else {
		row = r.db.QueryRowContext(ctx, QueryGetReservation, id)
	}
	var res model.Reservation
	if err := row.Scan(&res.ID, &res.UserID, &res.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, booking.ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	res.Tickets = []model.Ticket{}
	list := []model.Reservation{res}
	if err := attachTickets(ctx, r.db, list); err != nil {
		return model.Reservation{}, err
	}
	return list[0], nil
}

// attachTickets loads the tickets of every reservation in one query.
func attachTickets(ctx context.Context, q queryer, list []model.Reservation) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(list))
	args := make([]interface{}, 0, len(list))
	placeholders := make([]string, 0, len(list))
	for i, res := range list {
		index[res.ID] = i
		args = append(args, res.ID)
		placeholders = append(placeholders, "?")
	}
	query := QueryTicketDetailsPrefix + "(" + strings.Join(placeholders, ", ") + ")" + QueryTicketDetailsSuffix
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t  model.Ticket
			ts model.TicketSession
		)
		if err := rows.Scan(&t.ID, &t.Row, &t.Seat, &t.SessionID, &t.ReservationID, &ts.ShowTime, &ts.ShowTitle, &ts.DomeName); err != nil {
			return err
		}
		t.Session = &ts
		if i, ok := index[t.ReservationID]; ok {
			list[i].Tickets = append(list[i].Tickets, t)
		}
	}
	return rows.Err()
}

// reservationTx implements booking.Tx over a *sql.Tx.
type reservationTx struct {
	tx *sql.Tx
}

func (t *reservationTx) LockSession(ctx context.Context, sessionID uint64) (model.Session, error) {
	return scanSession(t.tx.QueryRowContext(ctx, QueryLockSession, sessionID))
}

func (t *reservationTx) TakenSeats(ctx context.Context, sessionID uint64) ([]booking.Seat, error) {
	return takenSeats(ctx, t.tx, sessionID)
}

func (t *reservationTx) InsertReservation(ctx context.Context, userID uint64, createdAt time.Time) (uint64, error) {
	res, err := t.tx.ExecContext(ctx, QueryInsertReservation, userID, createdAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// InsertTickets inserts all tickets in a single statement and reads them
// back to obtain their ids.  A duplicate (session, row, seat) becomes
// *booking.SeatTakenError.
func (t *reservationTx) InsertTickets(ctx context.Context, reservationID uint64, tickets []model.Ticket) ([]model.Ticket, error) {
	if len(tickets) == 0 {
		return []model.Ticket{}, nil
	}
	query := QueryInsertTicketsPrefix
	args := make([]interface{}, 0, len(tickets)*4)
	for i, tk := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, tk.Row, tk.Seat, tk.SessionID, reservationID)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		if taken := seatTakenFrom(err); taken != nil {
			return nil, taken
		}
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, QueryTicketsByReservation, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Ticket, 0, len(tickets))
	for rows.Next() {
		tk := model.Ticket{ReservationID: reservationID}
		if err := rows.Scan(&tk.ID, &tk.Row, &tk.Seat, &tk.SessionID); err != nil {
			return nil, err
		}
		out = append(out, tk)
	}
	return out, rows.Err()
}

// seatTakenFrom maps a unique-key violation on tickets to the seat it
// names.  Other errors yield nil.
func seatTakenFrom(err error) *booking.SeatTakenError {
	entry, ok := duplicateEntry(err)
	if !ok {
		return nil
	}
	parts, ok := splitUints(entry, 3)
	if !ok {
		return &booking.SeatTakenError{}
	}
	return &booking.SeatTakenError{
		SessionID: parts[0],
		Seat:      booking.Seat{Row: int(parts[1]), Seat: int(parts[2])},
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.ShowTime, &s.ShowID, &s.ShowTitle,
		&s.Dome.ID, &s.Dome.Name, &s.Dome.Rows, &s.Dome.SeatsInRow)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, booking.ErrSessionNotFound
		}
		return model.Session{}, err
	}
	s.DomeID = s.Dome.ID
	return s, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func takenSeats(ctx context.Context, q queryer, sessionID uint64) ([]booking.Seat, error) {
	rows, err := q.QueryContext(ctx, QueryTakenSeats, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []booking.Seat{}
	for rows.Next() {
		var s booking.Seat
		if err := rows.Scan(&s.Row, &s.Seat); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
