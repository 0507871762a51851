package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const bookingSelect = `
	SELECT
		b.id,
		b.user_id,
		b.movie_id,
		b.showtime_id,
		COALESCE(
			(SELECT array_agg(bs.seat_id ORDER BY bs.position) FROM booking_seats bs WHERE bs.booking_id = b.id),
			'{}'
		) AS seat_ids,
		b.total_price,
		b.status,
		b.payment_method,
		b.booked_at,
		b.paid_at,
		b.transaction_id,
		b.updated_at
	FROM bookings b
`

type PostgresBookingStore struct {
	db *pgxpool.Pool
}

func NewPostgresBookingStore(db *pgxpool.Pool) *PostgresBookingStore {
	return &PostgresBookingStore{
		db: db,
	}
}

func (p *PostgresBookingStore) Create(ctx context.Context, booking *domain.Booking) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (
				id,
				user_id,
				movie_id,
				showtime_id,
				total_price,
				status,
				payment_method,
				booked_at,
				updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		_, err := tx.Exec(
			ctx,
			query,
			booking.ID,
			booking.UserID,
			booking.MovieID,
			booking.ShowtimeID,
			booking.TotalPrice,
			string(booking.Status),
			string(booking.PaymentMethod),
			booking.BookedAt,
			booking.UpdatedAt,
		)
		if err != nil {
			return err
		}

		rows := make([][]any, len(booking.SeatIDs))
		for i, seatID := range booking.SeatIDs {
			rows[i] = []any{booking.ID, seatID, i}
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{"booking_id", "seat_id", "position"},
			pgx.CopyFromRows(rows),
		)
		return err
	})

	if pgErrorCode(err) == pgerrcode.UniqueViolation {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}

	return err
}

func (p *PostgresBookingStore) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return getBooking(ctx, p.db, id)
}

func (p *PostgresBookingStore) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	query := bookingSelect + `
		WHERE b.user_id = $1
		ORDER BY b.booked_at DESC, b.id
	`

	rows, err := p.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Booking, error) {
		return scanBooking(row)
	})
}

func (p *PostgresBookingStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	to domain.BookingStatus,
	payment *domain.PaymentRecord) (*domain.Booking, error) {

	var updated *domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var from string

		err := tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&from)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrBookingNotFound
			}
			return err
		}

		if err := domain.ValidateTransition(domain.BookingStatus(from), to); err != nil {
			return err
		}

		var (
			txID   *string
			paidAt any
		)
		if payment != nil {
			txID = &payment.TransactionID
			paidAt = payment.PaidAt
		}

		query := `
			UPDATE bookings
			SET status = $2,
				transaction_id = COALESCE($3, transaction_id),
				paid_at = COALESCE($4, paid_at),
				updated_at = NOW()
			WHERE id = $1
		`

		if _, err := tx.Exec(ctx, query, id, string(to), txID, paidAt); err != nil {
			return err
		}

		updated, err = getBooking(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func getBooking(ctx context.Context, q querier, id uuid.UUID) (*domain.Booking, error) {
	query := bookingSelect + `WHERE b.id = $1`

	b, err := scanBooking(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var (
		b             domain.Booking
		status        string
		paymentMethod string
	)

	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.MovieID,
		&b.ShowtimeID,
		&b.SeatIDs,
		&b.TotalPrice,
		&status,
		&paymentMethod,
		&b.BookedAt,
		&b.PaidAt,
		&b.TransactionID,
		&b.UpdatedAt,
	)
	b.Status = domain.BookingStatus(status)
	b.PaymentMethod = domain.PaymentMethod(paymentMethod)

	return b, err
}
