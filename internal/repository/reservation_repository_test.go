package repository

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/booking"
)

var sessionCols = []string{"id", "show_time", "astronomy_show_id", "title", "dome_id", "name", "row_count", "seats_in_row"}

func newMock(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewReservationRepo(db), mock
}

func newBookingService(repo *ReservationRepo, now time.Time) *booking.Service {
	return booking.NewService(repo, nil, booking.Options{
		Now:    func() time.Time { return now },
		Logger: log.New(&bytes.Buffer{}, "", 0),
	})
}

func TestCreateReservationCommits(t *testing.T) {
	repo, mock := newMock(t)
	showTime := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(QueryLockSession).WithArgs(1).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(1, showTime, 4, "Black Holes", 2, "Main Dome", 5, 10))
	mock.ExpectQuery(QueryTakenSeats).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"seat_row", "seat_number"}).AddRow(1, 1))
	mock.ExpectExec(QueryInsertReservation).WithArgs(7, now).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(QueryInsertTicketsPrefix+"(?, ?, ?, ?),(?, ?, ?, ?)").
		WithArgs(2, 3, 1, 10, 2, 4, 1, 10).
		WillReturnResult(sqlmock.NewResult(100, 2))
	mock.ExpectQuery(QueryTicketsByReservation).WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_row", "seat_number", "show_session_id"}).
			AddRow(100, 2, 3, 1).AddRow(101, 2, 4, 1))
	mock.ExpectCommit()

	svc := newBookingService(repo, now)
	r, err := svc.CreateReservation(context.Background(), access.Principal{UserID: 7}, []booking.TicketRequest{
		{Row: 2, Seat: 3, SessionID: 1},
		{Row: 2, Seat: 4, SessionID: 1},
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if r.ID != 10 || len(r.Tickets) != 2 || r.Tickets[1].ID != 101 || r.Tickets[1].ReservationID != 10 {
		t.Fatalf("unexpected reservation: %+v", r)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateReservationRejectsTakenSeatBeforeInsert(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(QueryLockSession).WithArgs(1).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(1, time.Now(), 4, "Black Holes", 2, "Main Dome", 5, 10))
	mock.ExpectQuery(QueryTakenSeats).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"seat_row", "seat_number"}).AddRow(2, 3))
	mock.ExpectRollback()

	svc := newBookingService(repo, time.Now())
	_, err := svc.CreateReservation(context.Background(), access.Principal{UserID: 7}, []booking.TicketRequest{{Row: 2, Seat: 3, SessionID: 1}})
	if !errors.Is(err, booking.ErrSeatAlreadyTaken) {
		t.Fatalf("want ErrSeatAlreadyTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateReservationUniqueKeyViolation(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(QueryLockSession).WithArgs(1).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(1, now, 4, "Black Holes", 2, "Main Dome", 5, 10))
	mock.ExpectQuery(QueryTakenSeats).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"seat_row", "seat_number"}))
	mock.ExpectExec(QueryInsertReservation).WithArgs(7, now).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(QueryInsertTicketsPrefix+"(?, ?, ?, ?),(?, ?, ?, ?)").
		WithArgs(1, 1, 1, 11, 1, 2, 1, 11).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-1-2' for key 'tickets.uq_tickets_seat'"})
	mock.ExpectRollback()

	svc := newBookingService(repo, now)
	_, err := svc.CreateReservation(context.Background(), access.Principal{UserID: 7}, []booking.TicketRequest{
		{Row: 1, Seat: 1, SessionID: 1},
		{Row: 1, Seat: 2, SessionID: 1},
	})
	var ticketErr *booking.TicketError
	if !errors.As(err, &ticketErr) || ticketErr.Index != 1 || !errors.Is(err, booking.ErrSeatAlreadyTaken) {
		t.Fatalf("want seat taken at index 1, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateReservationStoreFailure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(QueryLockSession).WithArgs(1).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	svc := newBookingService(repo, time.Now())
	_, err := svc.CreateReservation(context.Background(), access.Principal{UserID: 7}, []booking.TicketRequest{{Row: 1, Seat: 1, SessionID: 1}})
	if !errors.Is(err, booking.ErrStoreFailure) {
		t.Fatalf("want ErrStoreFailure, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSessionSnapshot(t *testing.T) {
	repo, mock := newMock(t)
	showTime := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(QuerySession).WithArgs(1).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(1, showTime, 4, "Black Holes", 2, "Main Dome", 5, 10))
	mock.ExpectQuery(QueryTakenSeats).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"seat_row", "seat_number"}).AddRow(1, 1).AddRow(1, 2))
	mock.ExpectCommit()

	svc := newBookingService(repo, time.Now())
	a, err := svc.Availability(context.Background(), access.Principal{UserID: 7}, 1)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if a.TicketsAvailable != 48 || len(a.TakenPlaces) != 2 || a.Session.DomeID != 2 {
		t.Fatalf("unexpected availability: %+v", a)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(QuerySession).WithArgs(9).WillReturnRows(sqlmock.NewRows(sessionCols))
	mock.ExpectRollback()
	if _, err := svc.Availability(context.Background(), access.Principal{UserID: 7}, 9); !errors.Is(err, booking.ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListReservationsOwned(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	showTime := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(QueryCountReservationsOwned).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(QueryListReservationsOwned).WithArgs(7, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at"}).AddRow(10, 7, created))
	mock.ExpectQuery(QueryTicketDetailsPrefix + "(?)" + QueryTicketDetailsSuffix).WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_row", "seat_number", "show_session_id", "reservation_id", "show_time", "title", "name"}).
			AddRow(100, 2, 3, 1, 10, showTime, "Black Holes", "Main Dome"))
	mock.ExpectCommit()

	owner := uint64(7)
	list, total, err := repo.ListReservations(context.Background(), booking.ReservationQuery{
		Scope: access.Scope{OwnerID: &owner}, Limit: 10, Offset: 0,
	})
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if total != 1 || len(list) != 1 || len(list[0].Tickets) != 1 {
		t.Fatalf("unexpected listing: total=%d %+v", total, list)
	}
	if s := list[0].Tickets[0].Session; s == nil || s.DomeName != "Main Dome" {
		t.Fatalf("ticket session summary missing: %+v", list[0].Tickets[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListReservationsSingleSnapshot(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(QueryCountReservations).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectCommit()

		list, total, err := repo.ListReservations(context.Background(), booking.ReservationQuery{Limit: 10})
		if err != nil || total != 0 || list == nil || len(list) != 0 {
			t.Fatalf("got list=%v total=%d err=%v", list, total, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("page query fails after count", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(QueryCountReservations).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery(QueryListReservations).WithArgs(10, 0).WillReturnError(errors.New("conn reset"))
		mock.ExpectRollback()

		if _, _, err := repo.ListReservations(context.Background(), booking.ReservationQuery{Limit: 10}); err == nil {
			t.Fatal("expected error")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("begin fails", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		if _, _, err := repo.ListReservations(context.Background(), booking.ReservationQuery{Limit: 10}); err == nil {
			t.Fatal("expected error")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})
}

func TestGetReservationOutsideScope(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(QueryGetReservationOwned).WithArgs(10, 8).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at"}))

	owner := uint64(8)
	_, err := repo.GetReservation(context.Background(), 10, access.Scope{OwnerID: &owner})
	if !errors.Is(err, booking.ErrReservationNotFound) {
		t.Fatalf("want ErrReservationNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSeatTakenFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *booking.SeatTakenError
	}{
		{"parsed", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '12-4-9' for key 'tickets.uq_tickets_seat'"},
			&booking.SeatTakenError{SessionID: 12, Seat: booking.Seat{Row: 4, Seat: 9}}},
		{"unparsable entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'k'"}, &booking.SeatTakenError{}},
		{"other mysql error", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, nil},
		{"plain error", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seatTakenFrom(tt.err)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("got %+v, want %+v", *got, *tt.want)
			}
		})
	}
}
