package booking

import (
	"context"
	"errors"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultReaperInterval = time.Minute

// ExpireStale returns seats reserved longer than the reservation TTL to the
// pool and marks their bookings EXPIRED. It reports how many bookings were
// expired.
func (o *Orchestrator) ExpireStale(ctx context.Context) (int, error) {
	ctx, span := o.tracer.Start(ctx, "booking.expire_stale")
	defer span.End()

	cutoff := o.now().Add(-o.reservationTTL)

	claims, err := o.seats.ExpireClaims(ctx, cutoff)
	if err != nil {
		recordError(span, err)
		return 0, err
	}

	expired := 0
	for _, claim := range claims {
		_, err := o.bookings.UpdateStatus(ctx, claim.BookingID, domain.BookingExpired, nil)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrAlreadyTerminal):
			o.logger.WarnContext(ctx, "expired claim has no pending booking",
				"booking_id", claim.BookingID,
				"showtime_id", claim.ShowtimeID,
				"error", err,
			)
		default:
			o.logger.ErrorContext(ctx, "failed to expire booking", "booking_id", claim.BookingID, "error", err)
		}
	}

	if expired > 0 {
		o.metrics.bookingsExpired.Add(ctx, int64(expired))
		o.logger.InfoContext(ctx, "expired stale reservations", "bookings", expired, "cutoff", cutoff)
	}

	span.SetAttributes(attribute.Int("bookings.expired", expired))

	return expired, nil
}

// RunReaper calls ExpireStale every interval until ctx is done.
func (o *Orchestrator) RunReaper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultReaperInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.logger.Info("reservation reaper started", "interval", interval, "ttl", o.reservationTTL)

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("reservation reaper stopped")
			return nil
		case <-ticker.C:
			if _, err := o.ExpireStale(ctx); err != nil && ctx.Err() == nil {
				o.logger.ErrorContext(ctx, "reaper sweep failed", "error", err)
			}
		}
	}
}
