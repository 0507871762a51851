package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// MemorySeatStore keeps seats in process. Each showtime has its own mutex, so
// claims on different showtimes never contend.
type MemorySeatStore struct {
	mu        sync.RWMutex
	showtimes map[int64]*showtimeSeats
	now       func() time.Time
}

type showtimeSeats struct {
	mu    sync.Mutex
	seats map[uuid.UUID]*domain.Seat
	order []uuid.UUID
}

func NewMemorySeatStore() *MemorySeatStore {
	return &MemorySeatStore{
		showtimes: make(map[int64]*showtimeSeats),
		now:       time.Now,
	}
}

// WithClock replaces the time source used to stamp claims.
func (m *MemorySeatStore) WithClock(now func() time.Time) *MemorySeatStore {
	m.now = now
	return m
}

func (m *MemorySeatStore) InitLayout(ctx context.Context, showtimeID int64, capacity int) ([]domain.Seat, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("seat capacity must be positive, got %d", capacity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.showtimes[showtimeID]; ok {
		return nil, domain.ErrLayoutExists
	}

	layout := domain.NewLayout(showtimeID, capacity)
	st := &showtimeSeats{
		seats: make(map[uuid.UUID]*domain.Seat, len(layout)),
		order: make([]uuid.UUID, len(layout)),
	}

	for i := range layout {
		seat := layout[i]
		st.seats[seat.ID] = &seat
		st.order[i] = seat.ID
	}

	m.showtimes[showtimeID] = st

	return layout, nil
}

func (m *MemorySeatStore) Layout(ctx context.Context, showtimeID int64) ([]domain.Seat, error) {
	st, ok := m.showtime(showtimeID)
	if !ok {
		return []domain.Seat{}, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	seats := make([]domain.Seat, len(st.order))
	for i, id := range st.order {
		seats[i] = cloneSeat(st.seats[id])
	}

	return seats, nil
}

func (m *MemorySeatStore) Seats(ctx context.Context, showtimeID int64, ids []uuid.UUID) ([]domain.Seat, error) {
	st, ok := m.showtime(showtimeID)
	if !ok {
		return nil, domain.ErrSeatNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	held, err := st.lookup(ids)
	if err != nil {
		return nil, err
	}

	seats := make([]domain.Seat, len(held))
	for i, s := range held {
		seats[i] = cloneSeat(s)
	}

	return seats, nil
}

func (m *MemorySeatStore) Claim(
	ctx context.Context,
	showtimeID int64,
	ids []uuid.UUID,
	claimant uuid.UUID) ([]domain.Seat, error) {

	st, ok := m.showtime(showtimeID)
	if !ok {
		return nil, domain.ErrSeatNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	seats, err := st.lookup(ids)
	if err != nil {
		return nil, err
	}

	for _, s := range seats {
		if s.Status != domain.SeatAvailable {
			return nil, &domain.SeatUnavailableError{SeatID: s.ID}
		}
	}

	claimedAt := m.now()
	claimed := make([]domain.Seat, len(seats))

	for i, s := range seats {
		owner := claimant
		at := claimedAt

		s.Status = domain.SeatReserved
		s.BookingID = &owner
		s.ClaimedAt = &at
		s.Version++

		claimed[i] = cloneSeat(s)
	}

	return claimed, nil
}

func (m *MemorySeatStore) Confirm(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	return m.transition(showtimeID, ids, func(s *domain.Seat) error {
		if s.Status != domain.SeatReserved || !s.HeldBy(claimant) {
			return fmt.Errorf("%w: confirm seat %s in status %s", domain.ErrInvalidStateTransition, s.ID, s.Status)
		}
		return nil
	}, func(s *domain.Seat) {
		s.Status = domain.SeatSold
		s.Version++
	})
}

func (m *MemorySeatStore) Release(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	return m.transition(showtimeID, ids, func(s *domain.Seat) error {
		if s.Status != domain.SeatReserved || !s.HeldBy(claimant) {
			return fmt.Errorf("%w: release seat %s in status %s", domain.ErrInvalidStateTransition, s.ID, s.Status)
		}
		return nil
	}, makeAvailable)
}

func (m *MemorySeatStore) Revoke(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	return m.transition(showtimeID, ids, func(*domain.Seat) error {
		return nil
	}, func(s *domain.Seat) {
		if s.HeldBy(claimant) {
			makeAvailable(s)
		}
	})
}

func (m *MemorySeatStore) ExpireClaims(ctx context.Context, cutoff time.Time) ([]domain.ExpiredClaim, error) {
	m.mu.RLock()
	showtimeIDs := make([]int64, 0, len(m.showtimes))
	for id := range m.showtimes {
		showtimeIDs = append(showtimeIDs, id)
	}
	m.mu.RUnlock()

	var expired []domain.ExpiredClaim

	for _, showtimeID := range showtimeIDs {
		st, _ := m.showtime(showtimeID)

		st.mu.Lock()

		byBooking := make(map[uuid.UUID]int)
		for _, id := range st.order {
			s := st.seats[id]
			if s.Status != domain.SeatReserved || s.ClaimedAt == nil || !s.ClaimedAt.Before(cutoff) {
				continue
			}

			bookingID := *s.BookingID
			idx, ok := byBooking[bookingID]
			if !ok {
				idx = len(expired)
				byBooking[bookingID] = idx
				expired = append(expired, domain.ExpiredClaim{BookingID: bookingID, ShowtimeID: showtimeID})
			}
			expired[idx].SeatIDs = append(expired[idx].SeatIDs, s.ID)

			makeAvailable(s)
		}

		st.mu.Unlock()
	}

	return expired, nil
}

// transition validates every seat before mutating any of them, which keeps
// multi-seat operations all-or-nothing under the showtime lock.
func (m *MemorySeatStore) transition(
	showtimeID int64,
	ids []uuid.UUID,
	check func(*domain.Seat) error,
	apply func(*domain.Seat)) error {

	st, ok := m.showtime(showtimeID)
	if !ok {
		return domain.ErrSeatNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	seats, err := st.lookup(ids)
	if err != nil {
		return err
	}

	for _, s := range seats {
		if err := check(s); err != nil {
			return err
		}
	}

	for _, s := range seats {
		apply(s)
	}

	return nil
}

func (m *MemorySeatStore) showtime(id int64) (*showtimeSeats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.showtimes[id]
	return st, ok
}

// lookup must be called with st.mu held.
func (st *showtimeSeats) lookup(ids []uuid.UUID) ([]*domain.Seat, error) {
	seats := make([]*domain.Seat, len(ids))

	for i, id := range ids {
		s, ok := st.seats[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrSeatNotFound, id)
		}
		seats[i] = s
	}

	return seats, nil
}

func makeAvailable(s *domain.Seat) {
	s.Status = domain.SeatAvailable
	s.BookingID = nil
	s.ClaimedAt = nil
	s.Version++
}

func cloneSeat(s *domain.Seat) domain.Seat {
	c := *s

	if s.BookingID != nil {
		id := *s.BookingID
		c.BookingID = &id
	}
	if s.ClaimedAt != nil {
		at := *s.ClaimedAt
		c.ClaimedAt = &at
	}

	return c
}
