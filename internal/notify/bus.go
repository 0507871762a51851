package notify

import (
	"context"
	"log/slog"
	"slices"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// Bus fans booking events out to its sinks, synchronously and in
// subscription order. A failing or panicking sink is logged and skipped;
// it never affects the other sinks or the publisher.
//
// The sink list is fixed at construction. Subscribe returns a new Bus.
type Bus struct {
	sinks  []domain.NotificationSink
	logger *slog.Logger
}

func NewBus(logger *slog.Logger, sinks ...domain.NotificationSink) *Bus {
	return &Bus{
		sinks:  slices.Clone(sinks),
		logger: logger,
	}
}

func (b *Bus) Subscribe(sink domain.NotificationSink) *Bus {
	sinks := make([]domain.NotificationSink, 0, len(b.sinks)+1)
	sinks = append(sinks, b.sinks...)
	sinks = append(sinks, sink)

	return &Bus{
		sinks:  sinks,
		logger: b.logger,
	}
}

func (b *Bus) Len() int {
	return len(b.sinks)
}

func (b *Bus) PublishConfirmed(ctx context.Context, event domain.BookingEvent) {
	event.Type = domain.EventBookingConfirmed
	b.publish(ctx, event)
}

func (b *Bus) PublishCancelled(ctx context.Context, event domain.BookingEvent) {
	event.Type = domain.EventBookingCancelled
	b.publish(ctx, event)
}

func (b *Bus) publish(ctx context.Context, event domain.BookingEvent) {
	for _, sink := range b.sinks {
		b.deliver(ctx, sink, event)
	}
}

func (b *Bus) deliver(ctx context.Context, sink domain.NotificationSink, event domain.BookingEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("notification sink panicked",
				"sink", sink.Name(),
				"event", event.Type,
				"booking_id", event.BookingID,
				"panic", r,
			)
		}
	}()

	if err := sink.Notify(ctx, event); err != nil {
		b.logger.Error("notification sink failed",
			"sink", sink.Name(),
			"event", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}
