package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatReserved  SeatStatus = "RESERVED"
	SeatSold      SeatStatus = "SOLD"
)

const SeatsPerRow = 10

type Seat struct {
	ID         uuid.UUID  `json:"id"`
	ShowtimeID int64      `json:"showtimeId"`
	Row        int        `json:"row"`
	Col        int        `json:"col"`
	Label      string     `json:"label"`
	Status     SeatStatus `json:"status"`
	BookingID  *uuid.UUID `json:"bookingId,omitempty"`
	ClaimedAt  *time.Time `json:"claimedAt,omitempty"`
	Version    int        `json:"version"`
}

// HeldBy reports whether the seat is reserved or sold under the given claimant.
func (s Seat) HeldBy(claimant uuid.UUID) bool {
	return s.BookingID != nil && *s.BookingID == claimant && s.Status != SeatAvailable
}

// ExpiredClaim groups the seats of one claimant that the reaper returned
// to the pool.
type ExpiredClaim struct {
	BookingID  uuid.UUID
	ShowtimeID int64
	SeatIDs    []uuid.UUID
}

// SeatStore owns seat records and their AVAILABLE -> RESERVED -> SOLD state
// machine. Every multi-seat operation is all-or-nothing and scoped to one
// showtime.
type SeatStore interface {
	InitLayout(ctx context.Context, showtimeID int64, capacity int) ([]Seat, error)
	Layout(ctx context.Context, showtimeID int64) ([]Seat, error)
	Seats(ctx context.Context, showtimeID int64, ids []uuid.UUID) ([]Seat, error)
	Claim(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) ([]Seat, error)
	Confirm(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error
	Release(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error
	// Revoke returns every listed seat still held by claimant, reserved or
	// sold, to AVAILABLE. Seats no longer held by claimant are left alone.
	Revoke(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error
	ExpireClaims(ctx context.Context, cutoff time.Time) ([]ExpiredClaim, error)
}

// NewLayout builds capacity AVAILABLE seats, SeatsPerRow to a row, in
// row-major order.
func NewLayout(showtimeID int64, capacity int) []Seat {
	seats := make([]Seat, capacity)

	for i := range seats {
		row := i/SeatsPerRow + 1
		col := i%SeatsPerRow + 1

		seats[i] = Seat{
			ID:         uuid.New(),
			ShowtimeID: showtimeID,
			Row:        row,
			Col:        col,
			Label:      SeatLabel(row, col),
			Status:     SeatAvailable,
			Version:    1,
		}
	}

	return seats
}

// RowLabel converts a 1-based row number to A..Z, AA, AB, ...
func RowLabel(row int) string {
	var label []byte

	for row > 0 {
		row--
		label = append([]byte{byte('A' + row%26)}, label...)
		row /= 26
	}

	return string(label)
}

func SeatLabel(row, col int) string {
	return fmt.Sprintf("%s%d", RowLabel(row), col)
}
