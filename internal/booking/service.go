// Package booking is the seat-reservation core: dome geometry checks,
// per-session availability and the all-or-nothing reservation
// transaction.  Persistence sits behind the Store interface.
package booking

import (
	"context"
	"errors"
	"log"
	"slices"
	"time"

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/model"
)

// Default paging for reservation listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Options tune the Service.  Zero values pick the defaults.
type Options struct {
	// AllowEmptyBatch accepts reservations without tickets.
	AllowEmptyBatch bool
	PageSize        int
	MaxPageSize     int
	Now             func() time.Time
	Logger          *log.Logger
}

// Service implements availability, reservation creation and scoped
// reservation reads on top of a Store.
type Service struct {
	store       Store
	notifier    Notifier
	allowEmpty  bool
	pageSize    int
	maxPageSize int
	now         func() time.Time
	logger      *log.Logger
}

// NewService wires a Service.  notifier may be nil.
func NewService(store Store, notifier Notifier, opts Options) *Service {
	if store == nil {
		panic("nil store passed to booking.NewService")
	}
	s := &Service{
		store:       store,
		notifier:    notifier,
		allowEmpty:  opts.AllowEmptyBatch,
		pageSize:    opts.PageSize,
		maxPageSize: opts.MaxPageSize,
		now:         opts.Now,
		logger:      opts.Logger,
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = MaxPageSize
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.pageSize > s.maxPageSize {
		s.pageSize = s.maxPageSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Availability is the result of listAvailability.
type Availability struct {
	Session          model.Session `json:"session"`
	TicketsAvailable int           `json:"tickets_available"`
	TakenPlaces      []Seat        `json:"taken_places"`
}

// Availability reports the session, its free seat count and the seats
// already taken.  The count is capacity minus committed tickets.
func (s *Service) Availability(ctx context.Context, p access.Principal, sessionID uint64) (Availability, error) {
	if err := access.CanReadCatalog(p); err != nil {
		return Availability{}, err
	}
	session, taken, err := s.store.SessionSnapshot(ctx, sessionID)
	if err != nil {
		return Availability{}, storeFailure("session snapshot", err)
	}
	if taken == nil {
		taken = []Seat{}
	}
	return Availability{
		Session:          session,
		TicketsAvailable: session.Dome.Capacity() - len(taken),
		TakenPlaces:      taken,
	}, nil
}

// AvailableSeats returns capacity minus committed tickets for the session.
func (s *Service) AvailableSeats(ctx context.Context, p access.Principal, sessionID uint64) (int, error) {
	a, err := s.Availability(ctx, p, sessionID)
	if err != nil {
		return 0, err
	}
	return a.TicketsAvailable, nil
}

// CreateReservation books every requested seat for owner or nothing at
// all.  Requests are validated against their session's dome, against each
// other and against committed tickets, in that order; the first failing
// request is reported as *TicketError.
func (s *Service) CreateReservation(ctx context.Context, owner access.Principal, reqs []TicketRequest) (model.Reservation, error) {
	if err := access.CanBook(owner); err != nil {
		return model.Reservation{}, err
	}
	if len(reqs) == 0 && !s.allowEmpty {
		return model.Reservation{}, ErrEmptyBatch
	}

	var created model.Reservation
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		sessions, err := lockSessions(ctx, tx, reqs)
		if err != nil {
			return err
		}
		for i, r := range reqs {
			if err := ValidateSeat(sessions[r.SessionID].Dome, r.Row, r.Seat); err != nil {
				return &TicketError{Index: i, Request: r, Err: err}
			}
		}
		if err := checkDistinct(reqs); err != nil {
			return err
		}
		if err := checkCollisions(ctx, tx, reqs, sessions); err != nil {
			return err
		}

		createdAt := s.now().UTC().Truncate(time.Microsecond)
		id, err := tx.InsertReservation(ctx, owner.UserID, createdAt)
		if err != nil {
			return err
		}
		tickets := make([]model.Ticket, 0, len(reqs))
		for _, r := range reqs {
			tickets = append(tickets, model.Ticket{
				Row:           r.Row,
				Seat:          r.Seat,
				SessionID:     r.SessionID,
				ReservationID: id,
			})
		}
		inserted, err := tx.InsertTickets(ctx, id, tickets)
		if err != nil {
			var taken *SeatTakenError
			if errors.As(err, &taken) {
				if i := indexOf(reqs, taken.SessionID, taken.Seat); i >= 0 {
					return &TicketError{Index: i, Request: reqs[i], Err: ErrSeatAlreadyTaken}
				}
			}
			return err
		}
		if inserted == nil {
			inserted = []model.Ticket{}
		}
		created = model.Reservation{ID: id, UserID: owner.UserID, CreatedAt: createdAt, Tickets: inserted}
		return nil
	})
	if err != nil {
		return model.Reservation{}, storeFailure("create reservation", err)
	}

	if s.notifier != nil {
		if err := s.notifier.ReservationCreated(ctx, owner, created); err != nil {
			s.logger.Printf("booking: notify reservation %d: %v", created.ID, err)
		}
	}
	return created, nil
}

// lockSessions locks every referenced session in ascending id order so
// overlapping batches always acquire locks in the same sequence.
func lockSessions(ctx context.Context, tx Tx, reqs []TicketRequest) (map[uint64]model.Session, error) {
	firstUse := make(map[uint64]int, len(reqs))
	ids := make([]uint64, 0, len(reqs))
	for i, r := range reqs {
		if _, ok := firstUse[r.SessionID]; !ok {
			firstUse[r.SessionID] = i
			ids = append(ids, r.SessionID)
		}
	}
	slices.Sort(ids)

	sessions := make(map[uint64]model.Session, len(ids))
	for _, id := range ids {
		session, err := tx.LockSession(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				i := firstUse[id]
				return nil, &TicketError{Index: i, Request: reqs[i], Err: ErrSessionNotFound}
			}
			return nil, err
		}
		sessions[id] = session
	}
	return sessions, nil
}

type seatKey struct {
	sessionID uint64
	seat      Seat
}

// checkDistinct rejects a batch that asks for the same seat twice.  The
// later request is the one reported.
func checkDistinct(reqs []TicketRequest) error {
	seen := make(map[seatKey]struct{}, len(reqs))
	for i, r := range reqs {
		k := seatKey{sessionID: r.SessionID, seat: r.seat()}
		if _, dup := seen[k]; dup {
			return &TicketError{Index: i, Request: r, Err: ErrSeatAlreadyTaken}
		}
		seen[k] = struct{}{}
	}
	return nil
}

func checkCollisions(ctx context.Context, tx Tx, reqs []TicketRequest, sessions map[uint64]model.Session) error {
	taken := make(map[seatKey]struct{})
	for id := range sessions {
		seats, err := tx.TakenSeats(ctx, id)
		if err != nil {
			return err
		}
		for _, st := range seats {
			taken[seatKey{sessionID: id, seat: st}] = struct{}{}
		}
	}
	for i, r := range reqs {
		if _, ok := taken[seatKey{sessionID: r.SessionID, seat: r.seat()}]; ok {
			return &TicketError{Index: i, Request: r, Err: ErrSeatAlreadyTaken}
		}
	}
	return nil
}

func indexOf(reqs []TicketRequest, sessionID uint64, seat Seat) int {
	for i, r := range reqs {
		if r.SessionID == sessionID && r.seat() == seat {
			return i
		}
	}
	return -1
}

// Page selects a 1-based page of a listing.  Zero values pick the first
// page and the configured default size.
type Page struct {
	Number int
	Size   int
}

// ReservationPage is one page of a scoped reservation listing.
type ReservationPage struct {
	Count       int
	Number      int
	Size        int
	HasNext     bool
	HasPrevious bool
	Results     []model.Reservation
}

// ListReservations returns the principal's reservations, or every
// reservation for staff, newest first.
func (s *Service) ListReservations(ctx context.Context, p access.Principal, page Page) (ReservationPage, error) {
	scope, err := access.ReservationScope(p)
	if err != nil {
		return ReservationPage{}, err
	}
	page = s.normalizePage(page)
	items, total, err := s.store.ListReservations(ctx, ReservationQuery{
		Scope:  scope,
		Limit:  page.Size,
		Offset: (page.Number - 1) * page.Size,
	})
	if err != nil {
		return ReservationPage{}, storeFailure("list reservations", err)
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return ReservationPage{
		Count:       total,
		Number:      page.Number,
		Size:        page.Size,
		HasNext:     page.Number*page.Size < total,
		HasPrevious: page.Number > 1,
		Results:     items,
	}, nil
}

func (s *Service) normalizePage(p Page) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = s.pageSize
	}
	if p.Size > s.maxPageSize {
		p.Size = s.maxPageSize
	}
	return p
}

// GetReservation returns one reservation visible to the principal.
func (s *Service) GetReservation(ctx context.Context, p access.Principal, id uint64) (model.Reservation, error) {
	scope, err := access.ReservationScope(p)
	if err != nil {
		return model.Reservation{}, err
	}
	r, err := s.store.GetReservation(ctx, id, scope)
	if err != nil {
		return model.Reservation{}, storeFailure("get reservation", err)
	}
	return r, nil
}

// Ticket returns one ticket of a reservation visible to the principal.
func (s *Service) Ticket(ctx context.Context, p access.Principal, reservationID, ticketID uint64) (model.Ticket, error) {
	r, err := s.GetReservation(ctx, p, reservationID)
	if err != nil {
		return model.Ticket{}, err
	}
	for _, t := range r.Tickets {
		if t.ID == ticketID {
			return t, nil
		}
	}
	return model.Ticket{}, ErrTicketNotFound
}
