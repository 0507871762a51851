package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type PostgresShowtimeRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowtimeRepository(db *pgxpool.Pool) *PostgresShowtimeRepository {
	return &PostgresShowtimeRepository{
		db: db,
	}
}

func (p *PostgresShowtimeRepository) GetShowtime(ctx context.Context, id int64) (*domain.Showtime, error) {
	query := `
		SELECT id, movie_id, movie_title, starts_at, seat_capacity, ticket_price
		FROM showtimes
		WHERE id = $1
	`

	var s domain.Showtime

	err := p.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.MovieID,
		&s.MovieTitle,
		&s.StartsAt,
		&s.Capacity,
		&s.TicketPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShowtimeNotFound
		}
		return nil, err
	}

	return &s, nil
}
