package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingExpired   BookingStatus = "EXPIRED"
)

func (s BookingStatus) IsTerminal() bool {
	return s == BookingConfirmed || s == BookingCancelled || s == BookingExpired
}

type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "CARD"
	PaymentVisa       PaymentMethod = "VISA"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentCash       PaymentMethod = "CASH"
	PaymentNetBanking PaymentMethod = "NET_BANKING"
)

type Booking struct {
	ID            uuid.UUID
	UserID        int64
	MovieID       int64
	ShowtimeID    int64
	SeatIDs       []uuid.UUID
	TotalPrice    decimal.Decimal
	Status        BookingStatus
	PaymentMethod PaymentMethod
	BookedAt      time.Time
	PaidAt        *time.Time
	TransactionID *string
	UpdatedAt     time.Time
}

type PaymentRecord struct {
	TransactionID string
	PaidAt        time.Time
}

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]Booking, error)
	// UpdateStatus applies a single transition checked by ValidateTransition
	// and returns the updated booking. A non-nil payment is recorded on the
	// booking.
	UpdateStatus(ctx context.Context, id uuid.UUID, to BookingStatus, payment *PaymentRecord) (*Booking, error)
}

// ValidateTransition enforces the booking lifecycle. PENDING moves once to
// CONFIRMED, CANCELLED or EXPIRED. A CONFIRMED booking may still be
// cancelled. CANCELLED and EXPIRED admit nothing.
func ValidateTransition(from, to BookingStatus) error {
	switch {
	case from == BookingCancelled || from == BookingExpired:
		return ErrAlreadyTerminal
	case from == BookingConfirmed && to != BookingCancelled:
		return ErrAlreadyTerminal
	case to == BookingPending:
		return ErrInvalidStateTransition
	}

	return nil
}
