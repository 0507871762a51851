package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingEventType string

const (
	EventBookingConfirmed BookingEventType = "booking.confirmed"
	EventBookingCancelled BookingEventType = "booking.cancelled"
)

type BookingEvent struct {
	Type          BookingEventType `json:"type"`
	BookingID     uuid.UUID        `json:"bookingId"`
	UserID        int64            `json:"userId"`
	MovieID       int64            `json:"movieId"`
	MovieTitle    string           `json:"movieTitle"`
	ShowtimeID    int64            `json:"showtimeId"`
	StartsAt      time.Time        `json:"startsAt"`
	SeatLabels    []string         `json:"seatLabels"`
	TotalPrice    decimal.Decimal  `json:"totalPrice"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	TransactionID string           `json:"transactionId,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

type NotificationSink interface {
	Name() string
	Notify(ctx context.Context, event BookingEvent) error
}
