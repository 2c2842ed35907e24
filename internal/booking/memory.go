package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/model"
)

// Compile-time check that MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store.  Transactions run one at a time
// under a single mutex, so they are trivially serializable; writes are
// staged and applied only when the transaction function succeeds.
type MemoryStore struct {
	mu           sync.Mutex
	sessions     map[uint64]model.Session
	reservations map[uint64]model.Reservation
	seats        map[seatKey]uint64 // unique (session, row, seat) -> ticket id
	lastResID    uint64
	lastTicketID uint64

	// failTickets, when set, is returned by the next InsertTickets call.
	failTickets error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[uint64]model.Session),
		reservations: make(map[uint64]model.Reservation),
		seats:        make(map[seatKey]uint64),
	}
}

// PutSession registers or replaces a session.  The catalogue lives
// outside the core, so callers seed sessions explicitly.
func (m *MemoryStore) PutSession(s model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.DomeID = s.Dome.ID
	m.sessions[s.ID] = s
}

// TicketCount returns the number of committed tickets for a session.
func (m *MemoryStore) TicketCount(sessionID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.seats {
		if k.sessionID == sessionID {
			n++
		}
	}
	return n
}

// ReservationCount returns the number of committed reservations.
func (m *MemoryStore) ReservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations)
}

func (m *MemoryStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m, staged: make(map[uint64]*model.Reservation), stagedSeats: make(map[seatKey]uint64)}
	if err := fn(tx); err != nil {
		return err
	}
	for id, r := range tx.staged {
		m.reservations[id] = *r
	}
	for k, ticketID := range tx.stagedSeats {
		m.seats[k] = ticketID
	}
	return nil
}

func (m *MemoryStore) SessionSnapshot(ctx context.Context, sessionID uint64) (model.Session, []Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return model.Session{}, nil, ErrSessionNotFound
	}
	return s, m.takenLocked(sessionID), nil
}

func (m *MemoryStore) takenLocked(sessionID uint64) []Seat {
	out := []Seat{}
	for k := range m.seats {
		if k.sessionID == sessionID {
			out = append(out, k.seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Seat < out[j].Seat
	})
	return out
}

func (m *MemoryStore) ListReservations(ctx context.Context, q ReservationQuery) ([]model.Reservation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var visible []model.Reservation
	for _, r := range m.reservations {
		if q.Scope.Allows(r.UserID) {
			visible = append(visible, m.decorateLocked(r))
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.After(visible[j].CreatedAt)
		}
		return visible[i].ID > visible[j].ID
	})
	total := len(visible)
	if q.Offset >= total {
		return []model.Reservation{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < total {
		end = q.Offset + q.Limit
	}
	return visible[q.Offset:end], total, nil
}

func (m *MemoryStore) GetReservation(ctx context.Context, id uint64, scope access.Scope) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok || !scope.Allows(r.UserID) {
		return model.Reservation{}, ErrReservationNotFound
	}
	return m.decorateLocked(r), nil
}

// decorateLocked returns a copy of r with session summaries attached.
func (m *MemoryStore) decorateLocked(r model.Reservation) model.Reservation {
	tickets := make([]model.Ticket, len(r.Tickets))
	for i, t := range r.Tickets {
		if s, ok := m.sessions[t.SessionID]; ok {
			t.Session = &model.TicketSession{ShowTime: s.ShowTime, ShowTitle: s.ShowTitle, DomeName: s.Dome.Name}
		}
		tickets[i] = t
	}
	r.Tickets = tickets
	return r
}

type memoryTx struct {
	store       *MemoryStore
	staged      map[uint64]*model.Reservation
	stagedSeats map[seatKey]uint64
}

func (tx *memoryTx) LockSession(ctx context.Context, sessionID uint64) (model.Session, error) {
	s, ok := tx.store.sessions[sessionID]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (tx *memoryTx) TakenSeats(ctx context.Context, sessionID uint64) ([]Seat, error) {
	return tx.store.takenLocked(sessionID), nil
}

func (tx *memoryTx) InsertReservation(ctx context.Context, userID uint64, createdAt time.Time) (uint64, error) {
	tx.store.lastResID++
	id := tx.store.lastResID
	tx.staged[id] = &model.Reservation{ID: id, UserID: userID, CreatedAt: createdAt, Tickets: []model.Ticket{}}
	return id, nil
}

func (tx *memoryTx) InsertTickets(ctx context.Context, reservationID uint64, tickets []model.Ticket) ([]model.Ticket, error) {
	if err := tx.store.failTickets; err != nil {
		tx.store.failTickets = nil
		return nil, err
	}
	r, ok := tx.staged[reservationID]
	if !ok {
		return nil, ErrReservationNotFound
	}
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		k := seatKey{sessionID: t.SessionID, seat: Seat{Row: t.Row, Seat: t.Seat}}
		_, committed := tx.store.seats[k]
		_, staged := tx.stagedSeats[k]
		if committed || staged {
			return nil, &SeatTakenError{SessionID: t.SessionID, Seat: k.seat}
		}
		tx.store.lastTicketID++
		t.ID = tx.store.lastTicketID
		t.ReservationID = reservationID
		tx.stagedSeats[k] = t.ID
		out = append(out, t)
	}
	r.Tickets = append(r.Tickets, out...)
	return out, nil
}
