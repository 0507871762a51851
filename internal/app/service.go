package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type BookingService interface {
	InitiateBooking(ctx context.Context, req booking.InitiateRequest) (*domain.Booking, error)
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, details string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	SeatLayout(ctx context.Context, showtimeID int64) ([]domain.Seat, error)
	InitSeatLayout(ctx context.Context, showtimeID int64) ([]domain.Seat, error)
}

type Reaper interface {
	RunReaper(ctx context.Context, interval time.Duration) error
}
