// Package api holds the request and response bodies of the HTTP API.
package api

import (
	"time"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status       string            `json:"status"`
	SystemInfo   SystemInfo        `json:"systemInfo"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatReserved  SeatStatus = "RESERVED"
	SeatSold      SeatStatus = "SOLD"
)

type Seat struct {
	Id     uuid.UUID  `json:"id"`
	Label  string     `json:"label"`
	Row    int        `json:"row"`
	Column int        `json:"column"`
	Status SeatStatus `json:"status"`
}

type SeatRow struct {
	Row   string `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	ShowtimeId int64     `json:"showtimeId"`
	Capacity   int       `json:"capacity"`
	Available  int       `json:"available"`
	SeatRows   []SeatRow `json:"seatRows"`
}

type CreateBookingRequest struct {
	MovieId        int64       `json:"movieId" validate:"required,gt=0"`
	ShowtimeId     int64       `json:"showtimeId" validate:"required,gt=0"`
	SeatIds        []uuid.UUID `json:"seatIds" validate:"required,min=1,max=10,unique"`
	PaymentMethod  string      `json:"paymentMethod" validate:"required,payment_method"`
	PaymentDetails string      `json:"paymentDetails" validate:"max=255"`
	DeferPayment   bool        `json:"deferPayment"`
}

type ConfirmPaymentRequest struct {
	PaymentDetails string `json:"paymentDetails" validate:"required,max=255"`
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingExpired   BookingStatus = "EXPIRED"
)

type Booking struct {
	Id            uuid.UUID     `json:"id"`
	UserId        int64         `json:"userId"`
	MovieId       int64         `json:"movieId"`
	ShowtimeId    int64         `json:"showtimeId"`
	SeatIds       []uuid.UUID   `json:"seatIds"`
	TotalPrice    string        `json:"totalPrice"`
	Status        BookingStatus `json:"status"`
	PaymentMethod string        `json:"paymentMethod"`
	BookedAt      time.Time     `json:"bookedAt"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	TransactionId *string       `json:"transactionId,omitempty"`
}

type BookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}
