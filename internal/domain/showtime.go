package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Showtime struct {
	ID          int64
	MovieID     int64
	MovieTitle  string
	StartsAt    time.Time
	Capacity    int
	TicketPrice decimal.Decimal
}

type ShowtimeRepository interface {
	GetShowtime(ctx context.Context, id int64) (*Showtime, error)
}
