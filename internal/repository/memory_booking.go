package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type MemoryBookingStore struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*domain.Booking
	now      func() time.Time
}

func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{
		bookings: make(map[uuid.UUID]*domain.Booking),
		now:      time.Now,
	}
}

func (m *MemoryBookingStore) Create(ctx context.Context, booking *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookings[booking.ID]; ok {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}

	stored := cloneBooking(booking)
	m.bookings[booking.ID] = &stored

	return nil
}

func (m *MemoryBookingStore) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}

	c := cloneBooking(b)
	return &c, nil
}

func (m *MemoryBookingStore) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bookings := []domain.Booking{}
	for _, b := range m.bookings {
		if b.UserID == userID {
			bookings = append(bookings, cloneBooking(b))
		}
	}

	slices.SortFunc(bookings, func(a, b domain.Booking) int {
		return b.BookedAt.Compare(a.BookedAt)
	})

	return bookings, nil
}

func (m *MemoryBookingStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	to domain.BookingStatus,
	payment *domain.PaymentRecord) (*domain.Booking, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}

	if err := domain.ValidateTransition(b.Status, to); err != nil {
		return nil, err
	}

	b.Status = to
	b.UpdatedAt = m.now()

	if payment != nil {
		paidAt := payment.PaidAt
		txID := payment.TransactionID
		b.PaidAt = &paidAt
		b.TransactionID = &txID
	}

	c := cloneBooking(b)
	return &c, nil
}

func cloneBooking(b *domain.Booking) domain.Booking {
	c := *b
	c.SeatIDs = slices.Clone(b.SeatIDs)

	if b.PaidAt != nil {
		at := *b.PaidAt
		c.PaidAt = &at
	}
	if b.TransactionID != nil {
		tx := *b.TransactionID
		c.TransactionID = &tx
	}

	return c
}
