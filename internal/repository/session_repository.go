package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/model"
)

// SessionFilter narrows session listings.  Date keeps sessions whose
// show_time falls on that UTC calendar day; ShowID keeps one show.
type SessionFilter struct {
	Date   *time.Time
	ShowID uint64
}

// SessionRepo manages show sessions for the catalogue.  Seat booking
// goes through ReservationRepo instead.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const (
	QueryInsertSession = `INSERT INTO show_sessions (astronomy_show_id, planetarium_dome_id, show_time) VALUES (?, ?, ?)`
	QueryUpdateSession = `UPDATE show_sessions SET astronomy_show_id = ?, planetarium_dome_id = ?, show_time = ? WHERE id = ?`
	QueryDeleteSession = `DELETE FROM show_sessions WHERE id = ?`

	// QueryListSessionsBase computes tickets_available as capacity minus
	// the tickets committed for the session.
	QueryListSessionsBase = `SELECT ss.id, ss.show_time, ss.astronomy_show_id, a.title, d.id, d.name, d.row_count, d.seats_in_row,
       d.row_count * d.seats_in_row - COUNT(t.id) AS tickets_available
FROM show_sessions ss
JOIN astronomy_shows a ON a.id = ss.astronomy_show_id
JOIN planetarium_domes d ON d.id = ss.planetarium_dome_id
LEFT JOIN tickets t ON t.show_session_id = ss.id`
	QueryListSessionsGroup = ` GROUP BY ss.id, ss.show_time, ss.astronomy_show_id, a.title, d.id, d.name, d.row_count, d.seats_in_row ORDER BY ss.show_time, ss.id`
)

// Create inserts a session and returns it with show title and dome
// loaded.  Unknown show or dome ids yield ErrInvalidReference.
func (r *SessionRepo) Create(ctx context.Context, showID, domeID uint64, showTime time.Time) (model.Session, error) {
	res, err := r.db.ExecContext(ctx, QueryInsertSession, showID, domeID, showTime.UTC())
	if err != nil {
		if isMissingReference(err) {
			return model.Session{}, ErrInvalidReference
		}
		return model.Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Session{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update replaces the show, dome and time of a session.
func (r *SessionRepo) Update(ctx context.Context, id, showID, domeID uint64, showTime time.Time) (model.Session, error) {
	_, err := r.db.ExecContext(ctx, QueryUpdateSession, showID, domeID, showTime.UTC(), id)
	if err != nil {
		if isMissingReference(err) {
			return model.Session{}, ErrInvalidReference
		}
		return model.Session{}, err
	}
	// RowsAffected is 0 for an unchanged row too; the reload decides.
	return r.GetByID(ctx, id)
}

// Delete removes a session together with its tickets.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, QueryDeleteSession, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns the session with show title and dome.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, QuerySession, id))
	if err != nil {
		if errors.Is(err, booking.ErrSessionNotFound) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}
	return s, nil
}

// List returns sessions matching f with their current availability.
func (r *SessionRepo) List(ctx context.Context, f SessionFilter) ([]model.SessionListItem, error) {
	query, args := buildSessionQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SessionListItem{}
	for rows.Next() {
		var it model.SessionListItem
		if err := rows.Scan(&it.ID, &it.ShowTime, &it.ShowID, &it.ShowTitle,
			&it.Dome.ID, &it.Dome.Name, &it.Dome.Rows, &it.Dome.SeatsInRow, &it.TicketsAvailable); err != nil {
			return nil, err
		}
		it.DomeID = it.Dome.ID
		out = append(out, it)
	}
	return out, rows.Err()
}

func buildSessionQuery(f SessionFilter) (string, []interface{}) {
	where := []string{}
	args := []interface{}{}
	if f.Date != nil {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "ss.show_time >= ? AND ss.show_time < ?")
		args = append(args, day, day.AddDate(0, 0, 1))
	}
	if f.ShowID != 0 {
		where = append(where, "ss.astronomy_show_id = ?")
		args = append(args, f.ShowID)
	}
	query := QueryListSessionsBase
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + QueryListSessionsGroup, args
}
