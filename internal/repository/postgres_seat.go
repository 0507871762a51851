package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const seatColumns = `id, showtime_id, seat_row, seat_col, label, status, booking_id, claimed_at, version`

type PostgresSeatStore struct {
	db *pgxpool.Pool
}

func NewPostgresSeatStore(db *pgxpool.Pool) *PostgresSeatStore {
	return &PostgresSeatStore{
		db: db,
	}
}

func (p *PostgresSeatStore) InitLayout(ctx context.Context, showtimeID int64, capacity int) ([]domain.Seat, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("seat capacity must be positive, got %d", capacity)
	}

	layout := domain.NewLayout(showtimeID, capacity)

	rows := make([][]any, len(layout))
	for i, s := range layout {
		rows[i] = []any{s.ID, s.ShowtimeID, s.Row, s.Col, s.Label, string(s.Status), s.Version}
	}

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"seats"},
			[]string{"id", "showtime_id", "seat_row", "seat_col", "label", "status", "version"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	if err != nil {
		switch pgErrorCode(err) {
		case pgerrcode.UniqueViolation:
			return nil, domain.ErrLayoutExists
		case pgerrcode.ForeignKeyViolation:
			return nil, domain.ErrShowtimeNotFound
		}

		return nil, err
	}

	return layout, nil
}

func (p *PostgresSeatStore) Layout(ctx context.Context, showtimeID int64) ([]domain.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE showtime_id = $1
		ORDER BY seat_row, seat_col
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanSeat)
}

func (p *PostgresSeatStore) Seats(ctx context.Context, showtimeID int64, ids []uuid.UUID) ([]domain.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE showtime_id = $1 AND id = ANY($2::uuid[])
	`

	rows, err := p.db.Query(ctx, query, showtimeID, ids)
	if err != nil {
		return nil, err
	}

	found, err := pgx.CollectRows(rows, scanSeat)
	if err != nil {
		return nil, err
	}

	return inRequestOrder(ids, found)
}

// Claim locks the requested rows in id order, checks every seat is available
// and reserves them all in one statement. Any failure rolls the whole
// transaction back.
func (p *PostgresSeatStore) Claim(
	ctx context.Context,
	showtimeID int64,
	ids []uuid.UUID,
	claimant uuid.UUID) ([]domain.Seat, error) {

	var claimed []domain.Seat

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seats, err := lockSeats(ctx, tx, showtimeID, ids)
		if err != nil {
			return err
		}

		for _, s := range seats {
			if s.Status != domain.SeatAvailable {
				return &domain.SeatUnavailableError{SeatID: s.ID}
			}
		}

		query := `
			UPDATE seats
			SET status = 'RESERVED', booking_id = $3, claimed_at = $4, version = version + 1
			WHERE showtime_id = $1 AND id = ANY($2::uuid[])
			RETURNING ` + seatColumns

		rows, err := tx.Query(ctx, query, showtimeID, ids, claimant, time.Now().UTC())
		if err != nil {
			return err
		}

		updated, err := pgx.CollectRows(rows, scanSeat)
		if err != nil {
			return err
		}

		claimed, err = inRequestOrder(ids, updated)
		return err
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

func (p *PostgresSeatStore) Confirm(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seats, err := lockSeats(ctx, tx, showtimeID, ids)
		if err != nil {
			return err
		}

		for _, s := range seats {
			if s.Status != domain.SeatReserved || !s.HeldBy(claimant) {
				return fmt.Errorf("%w: confirm seat %s in status %s", domain.ErrInvalidStateTransition, s.ID, s.Status)
			}
		}

		query := `
			UPDATE seats
			SET status = 'SOLD', version = version + 1
			WHERE showtime_id = $1 AND id = ANY($2::uuid[])
		`

		_, err = tx.Exec(ctx, query, showtimeID, ids)
		return err
	})
}

func (p *PostgresSeatStore) Release(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seats, err := lockSeats(ctx, tx, showtimeID, ids)
		if err != nil {
			return err
		}

		for _, s := range seats {
			if s.Status != domain.SeatReserved || !s.HeldBy(claimant) {
				return fmt.Errorf("%w: release seat %s in status %s", domain.ErrInvalidStateTransition, s.ID, s.Status)
			}
		}

		return makeSeatsAvailable(ctx, tx, showtimeID, ids, claimant)
	})
}

func (p *PostgresSeatStore) Revoke(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		if _, err := lockSeats(ctx, tx, showtimeID, ids); err != nil {
			return err
		}

		return makeSeatsAvailable(ctx, tx, showtimeID, ids, claimant)
	})
}

// ExpireClaims frees a booking's seats only when it can lock every one of
// them. A booking with any seat locked by an in-flight transaction is left
// whole for the next sweep.
func (p *PostgresSeatStore) ExpireClaims(ctx context.Context, cutoff time.Time) ([]domain.ExpiredClaim, error) {
	query := `
		WITH candidates AS (
			SELECT DISTINCT booking_id
			FROM seats
			WHERE status = 'RESERVED' AND claimed_at < $1
		),
		locked AS (
			SELECT s.id, s.booking_id
			FROM seats s
			JOIN candidates c ON c.booking_id = s.booking_id
			WHERE s.status = 'RESERVED' AND s.claimed_at < $1
			ORDER BY s.id
			FOR UPDATE OF s SKIP LOCKED
		),
		complete AS (
			SELECT l.booking_id
			FROM locked l
			GROUP BY l.booking_id
			HAVING COUNT(*) = (
				SELECT COUNT(*) FROM seats a
				WHERE a.booking_id = l.booking_id AND a.status = 'RESERVED'
			)
		)
		UPDATE seats s
		SET status = 'AVAILABLE', booking_id = NULL, claimed_at = NULL, version = s.version + 1
		FROM locked l
		JOIN complete c ON c.booking_id = l.booking_id
		WHERE s.id = l.id
		RETURNING s.id, s.showtime_id, l.booking_id
	`

	rows, err := p.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []domain.ExpiredClaim
	byBooking := make(map[uuid.UUID]int)

	for rows.Next() {
		var (
			seatID     uuid.UUID
			showtimeID int64
			bookingID  uuid.UUID
		)

		if err := rows.Scan(&seatID, &showtimeID, &bookingID); err != nil {
			return nil, err
		}

		idx, ok := byBooking[bookingID]
		if !ok {
			idx = len(claims)
			byBooking[bookingID] = idx
			claims = append(claims, domain.ExpiredClaim{BookingID: bookingID, ShowtimeID: showtimeID})
		}
		claims[idx].SeatIDs = append(claims[idx].SeatIDs, seatID)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return claims, nil
}

// lockSeats takes row locks in a stable order so concurrent multi-seat
// transactions on the same showtime cannot deadlock.
func lockSeats(ctx context.Context, tx pgx.Tx, showtimeID int64, ids []uuid.UUID) ([]domain.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE showtime_id = $1 AND id = ANY($2::uuid[])
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, showtimeID, ids)
	if err != nil {
		return nil, err
	}

	seats, err := pgx.CollectRows(rows, scanSeat)
	if err != nil {
		return nil, err
	}

	return inRequestOrder(ids, seats)
}

func makeSeatsAvailable(ctx context.Context, tx pgx.Tx, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	query := `
		UPDATE seats
		SET status = 'AVAILABLE', booking_id = NULL, claimed_at = NULL, version = version + 1
		WHERE showtime_id = $1 AND id = ANY($2::uuid[]) AND booking_id = $3
	`

	_, err := tx.Exec(ctx, query, showtimeID, ids, claimant)
	return err
}

// inRequestOrder reorders rows to match ids and reports the first id that
// is missing from the showtime.
func inRequestOrder(ids []uuid.UUID, seats []domain.Seat) ([]domain.Seat, error) {
	byID := make(map[uuid.UUID]domain.Seat, len(seats))
	for _, s := range seats {
		byID[s.ID] = s
	}

	ordered := make([]domain.Seat, len(ids))
	for i, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrSeatNotFound, id)
		}
		ordered[i] = s
	}

	return ordered, nil
}

func scanSeat(row pgx.CollectableRow) (domain.Seat, error) {
	var (
		s      domain.Seat
		status string
	)

	err := row.Scan(
		&s.ID,
		&s.ShowtimeID,
		&s.Row,
		&s.Col,
		&s.Label,
		&status,
		&s.BookingID,
		&s.ClaimedAt,
		&s.Version,
	)
	s.Status = domain.SeatStatus(status)

	return s, err
}
