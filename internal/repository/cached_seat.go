package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultLayoutCacheTTL = 5 * time.Second

func seatLayoutKey(showtimeID, generation int64) string {
	return fmt.Sprintf("seats:%d:%d", showtimeID, generation)
}

func seatGenerationKey(showtimeID int64) string {
	return fmt.Sprintf("seats:%d:gen", showtimeID)
}

// CachedSeatStore serves seat layouts from Redis and forwards every state
// change to the backing store, bumping the showtime's cache generation
// afterwards. Layouts are cached under the generation read before loading
// them, so a load that races a mutation lands in a retired key. Claims never
// read from the cache.
type CachedSeatStore struct {
	domain.SeatStore
	redis  redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedSeatStore(store domain.SeatStore, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedSeatStore {
	return &CachedSeatStore{
		SeatStore: store,
		redis:     client,
		ttl:       ttl,
		logger:    logger,
	}
}

func (c *CachedSeatStore) Layout(ctx context.Context, showtimeID int64) ([]domain.Seat, error) {
	generation, err := c.generation(ctx, showtimeID)
	if err != nil {
		c.logger.Warn("seat layout cache read failed", "key", seatGenerationKey(showtimeID), "error", err)
		return c.SeatStore.Layout(ctx, showtimeID)
	}

	key := seatLayoutKey(showtimeID, generation)

	cached, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var seats []domain.Seat
		if err := json.Unmarshal(cached, &seats); err == nil {
			return seats, nil
		}
		c.logger.Warn("discarding malformed seat layout cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("seat layout cache read failed", "key", key, "error", err)
	}

	seats, err := c.SeatStore.Layout(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(seats)
	if err != nil {
		return nil, err
	}

	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("seat layout cache write failed", "key", key, "error", err)
	}

	return seats, nil
}

// generation is 0 until the first mutation of the showtime.
func (c *CachedSeatStore) generation(ctx context.Context, showtimeID int64) (int64, error) {
	generation, err := c.redis.Get(ctx, seatGenerationKey(showtimeID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return generation, err
}

func (c *CachedSeatStore) InitLayout(ctx context.Context, showtimeID int64, capacity int) ([]domain.Seat, error) {
	seats, err := c.SeatStore.InitLayout(ctx, showtimeID, capacity)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, showtimeID)
	return seats, nil
}

func (c *CachedSeatStore) Claim(
	ctx context.Context,
	showtimeID int64,
	ids []uuid.UUID,
	claimant uuid.UUID) ([]domain.Seat, error) {

	seats, err := c.SeatStore.Claim(ctx, showtimeID, ids, claimant)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, showtimeID)
	return seats, nil
}

func (c *CachedSeatStore) Confirm(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	if err := c.SeatStore.Confirm(ctx, showtimeID, ids, claimant); err != nil {
		return err
	}

	c.invalidate(ctx, showtimeID)
	return nil
}

func (c *CachedSeatStore) Release(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	if err := c.SeatStore.Release(ctx, showtimeID, ids, claimant); err != nil {
		return err
	}

	c.invalidate(ctx, showtimeID)
	return nil
}

func (c *CachedSeatStore) Revoke(ctx context.Context, showtimeID int64, ids []uuid.UUID, claimant uuid.UUID) error {
	if err := c.SeatStore.Revoke(ctx, showtimeID, ids, claimant); err != nil {
		return err
	}

	c.invalidate(ctx, showtimeID)
	return nil
}

func (c *CachedSeatStore) ExpireClaims(ctx context.Context, cutoff time.Time) ([]domain.ExpiredClaim, error) {
	claims, err := c.SeatStore.ExpireClaims(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	for _, claim := range claims {
		if _, ok := seen[claim.ShowtimeID]; ok {
			continue
		}
		seen[claim.ShowtimeID] = struct{}{}
		c.invalidate(ctx, claim.ShowtimeID)
	}

	return claims, nil
}

// invalidate retires the cached layout; entries of older generations age out
// with their TTL.
func (c *CachedSeatStore) invalidate(ctx context.Context, showtimeID int64) {
	key := seatGenerationKey(showtimeID)

	if err := c.redis.Incr(ctx, key).Err(); err != nil {
		c.logger.Warn("seat layout cache invalidation failed", "key", key, "error", err)
	}
}
