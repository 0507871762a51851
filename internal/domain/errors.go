package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRecordNotFound matches every lookup miss below.
var ErrRecordNotFound = errors.New("record not found")

var (
	ErrShowtimeNotFound error = notFoundError("showtime not found")
	ErrSeatNotFound     error = notFoundError("seat does not belong to the showtime")
	ErrBookingNotFound  error = notFoundError("booking not found")
	ErrUserNotFound     error = notFoundError("user not found")
)

var (
	ErrLayoutExists           = errors.New("seat layout already exists for showtime")
	ErrSeatUnavailable        = errors.New("seat is not available")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidBookingRequest  = errors.New("invalid booking request")
	ErrPaymentDeclined        = errors.New("payment declined")
	ErrPaymentInProgress      = errors.New("a payment for this booking is already in progress")
	ErrRefundFailed           = errors.New("refund failed")
	ErrAlreadyTerminal        = errors.New("booking is already confirmed, cancelled or expired")
	ErrReservationExpired     = errors.New("your seat reservation has expired, please select your seats again")
)

// SeatUnavailableError names the first seat that blocked a claim.
// It matches ErrSeatUnavailable with errors.Is.
type SeatUnavailableError struct {
	SeatID uuid.UUID
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat %s is not available", e.SeatID)
}

func (e *SeatUnavailableError) Is(target error) bool {
	return target == ErrSeatUnavailable
}

type notFoundError string

func (e notFoundError) Error() string {
	return string(e)
}

func (e notFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}
