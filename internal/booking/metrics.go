package booking

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type metrics struct {
	bookingsConfirmed metric.Int64Counter
	bookingsCancelled metric.Int64Counter
	bookingsExpired   metric.Int64Counter
	claimConflicts    metric.Int64Counter
	paymentsDeclined  metric.Int64Counter
}

func newMetrics(meter metric.Meter) *metrics {
	return &metrics{
		bookingsConfirmed: counter(meter, "bookings.confirmed", "Bookings paid and committed"),
		bookingsCancelled: counter(meter, "bookings.cancelled", "Bookings cancelled by users or after a declined payment"),
		bookingsExpired:   counter(meter, "bookings.expired", "Pending bookings expired by the reaper"),
		claimConflicts:    counter(meter, "seat_claim.conflicts", "Seat claims rejected because a seat was taken"),
		paymentsDeclined:  counter(meter, "payments.declined", "Charges declined by a payment gateway"),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit("{booking}"))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}
