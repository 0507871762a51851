// Package booking runs the claim, pay, commit-or-compensate pipeline and the
// reaper that returns abandoned reservations to the pool.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/metinatakli/cinema-seat-booking/internal/booking"

	DefaultReservationTTL = 10 * time.Minute
	MaxSeatsPerBooking    = 10
)

type PaymentResolver interface {
	Resolve(method domain.PaymentMethod) domain.PaymentGateway
}

type Publisher interface {
	PublishConfirmed(ctx context.Context, event domain.BookingEvent)
	PublishCancelled(ctx context.Context, event domain.BookingEvent)
}

type InitiateRequest struct {
	UserID         int64
	MovieID        int64
	ShowtimeID     int64
	SeatIDs        []uuid.UUID
	PaymentMethod  domain.PaymentMethod
	PaymentDetails string
	// DeferPayment stops after the claim; the booking stays PENDING until
	// ConfirmPayment or the reservation TTL runs out.
	DeferPayment bool
}

type Orchestrator struct {
	seats     domain.SeatStore
	bookings  domain.BookingRepository
	showtimes domain.ShowtimeRepository
	payments  PaymentResolver
	publisher Publisher
	logger    *slog.Logger

	reservationTTL time.Duration
	now            func() time.Time

	// bookings with a charge in flight
	inflight sync.Map

	tracer  trace.Tracer
	metrics *metrics
}

type Option func(*Orchestrator)

// WithReservationTTL ignores non-positive values.
func WithReservationTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		if ttl > 0 {
			o.reservationTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func New(
	seats domain.SeatStore,
	bookings domain.BookingRepository,
	showtimes domain.ShowtimeRepository,
	payments PaymentResolver,
	publisher Publisher,
	logger *slog.Logger,
	opts ...Option) *Orchestrator {

	o := &Orchestrator{
		seats:          seats,
		bookings:       bookings,
		showtimes:      showtimes,
		payments:       payments,
		publisher:      publisher,
		logger:         logger,
		reservationTTL: DefaultReservationTTL,
		now:            time.Now,
		tracer:         otel.Tracer(instrumentationName),
		metrics:        newMetrics(otel.Meter(instrumentationName)),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Orchestrator) InitiateBooking(ctx context.Context, req InitiateRequest) (*domain.Booking, error) {
	ctx, span := o.tracer.Start(ctx, "booking.initiate", trace.WithAttributes(
		attribute.Int64("showtime.id", req.ShowtimeID),
		attribute.Int("seats.count", len(req.SeatIDs)),
		attribute.String("payment.method", string(req.PaymentMethod)),
	))
	defer span.End()

	booking, err := o.initiate(ctx, req)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	return booking, nil
}

func (o *Orchestrator) initiate(ctx context.Context, req InitiateRequest) (*domain.Booking, error) {
	if err := validateSeatIDs(req.SeatIDs); err != nil {
		return nil, err
	}

	showtime, err := o.showtimes.GetShowtime(ctx, req.ShowtimeID)
	if err != nil {
		return nil, err
	}

	if showtime.MovieID != req.MovieID {
		return nil, fmt.Errorf("%w: showtime %d does not screen movie %d",
			domain.ErrInvalidBookingRequest, showtime.ID, req.MovieID)
	}

	bookingID := uuid.New()

	claimed, err := o.seats.Claim(ctx, req.ShowtimeID, req.SeatIDs, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrSeatUnavailable) {
			o.metrics.claimConflicts.Add(ctx, 1)
		}
		return nil, err
	}

	now := o.now()
	booking := &domain.Booking{
		ID:            bookingID,
		UserID:        req.UserID,
		MovieID:       req.MovieID,
		ShowtimeID:    req.ShowtimeID,
		SeatIDs:       slices.Clone(req.SeatIDs),
		TotalPrice:    showtime.TicketPrice.Mul(decimal.NewFromInt(int64(len(req.SeatIDs)))),
		Status:        domain.BookingPending,
		PaymentMethod: req.PaymentMethod,
		BookedAt:      now,
		UpdatedAt:     now,
	}

	if err := o.bookings.Create(ctx, booking); err != nil {
		o.releaseSeats(context.WithoutCancel(ctx), booking)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	o.logger.InfoContext(ctx, "seats reserved",
		"booking_id", booking.ID,
		"showtime_id", booking.ShowtimeID,
		"seats", len(claimed),
		"total_price", booking.TotalPrice.StringFixed(2),
	)

	if req.DeferPayment {
		return booking, nil
	}

	return o.pay(ctx, booking, showtime, req.PaymentDetails)
}

// ConfirmPayment charges a PENDING booking created with DeferPayment.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, details string) (*domain.Booking, error) {
	ctx, span := o.tracer.Start(ctx, "booking.confirm_payment", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
	))
	defer span.End()

	booking, err := o.bookings.Get(ctx, bookingID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	if booking.Status.IsTerminal() {
		recordError(span, domain.ErrAlreadyTerminal)
		return nil, domain.ErrAlreadyTerminal
	}

	showtime, err := o.showtimes.GetShowtime(ctx, booking.ShowtimeID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	confirmed, err := o.pay(ctx, booking, showtime, details)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	return confirmed, nil
}

// pay charges the booking outside of any seat lock and then commits or
// compensates. Only one charge per booking runs at a time in this process.
func (o *Orchestrator) pay(
	ctx context.Context,
	booking *domain.Booking,
	showtime *domain.Showtime,
	details string) (*domain.Booking, error) {

	if _, busy := o.inflight.LoadOrStore(booking.ID, struct{}{}); busy {
		return nil, domain.ErrPaymentInProgress
	}
	defer o.inflight.Delete(booking.ID)

	gateway := o.payments.Resolve(booking.PaymentMethod)

	receipt, err := o.charge(ctx, gateway, booking, details)
	if err != nil {
		o.metrics.paymentsDeclined.Add(ctx, 1)
		o.logger.WarnContext(ctx, "payment declined",
			"booking_id", booking.ID,
			"method", booking.PaymentMethod,
			"error", err,
		)

		o.cancelPending(context.WithoutCancel(ctx), booking)
		return nil, err
	}

	// The charge went through; from here on the request context must not
	// abort the commit or the compensation.
	ctx = context.WithoutCancel(ctx)

	if err := o.seats.Confirm(ctx, booking.ShowtimeID, booking.SeatIDs, booking.ID); err != nil {
		return nil, o.abandonCharge(ctx, booking, gateway, receipt, err)
	}

	confirmed, err := o.bookings.UpdateStatus(ctx, booking.ID, domain.BookingConfirmed, &domain.PaymentRecord{
		TransactionID: receipt.TransactionID,
		PaidAt:        receipt.ProcessedAt,
	})
	if err != nil {
		return nil, o.abandonCharge(ctx, booking, gateway, receipt, err)
	}

	o.metrics.bookingsConfirmed.Add(ctx, 1)
	o.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", confirmed.ID,
		"transaction_id", receipt.TransactionID,
	)

	o.publisher.PublishConfirmed(ctx, o.event(ctx, confirmed, showtime))

	return confirmed, nil
}

func chargeKey(bookingID uuid.UUID) string {
	return "booking-" + bookingID.String() + "-charge"
}

// charge turns every gateway failure, including a panic, into an error
// wrapping ErrPaymentDeclined.
func (o *Orchestrator) charge(
	ctx context.Context,
	gateway domain.PaymentGateway,
	booking *domain.Booking,
	details string) (receipt *domain.Receipt, err error) {

	ctx, span := o.tracer.Start(ctx, "payment.charge", trace.WithAttributes(
		attribute.String("payment.method", string(gateway.Method())),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			receipt = nil
			err = fmt.Errorf("%w: gateway panic: %v", domain.ErrPaymentDeclined, r)
		}
		if err != nil {
			recordError(span, err)
		}
	}()

	receipt, err = gateway.Charge(domain.WithIdempotencyKey(ctx, chargeKey(booking.ID)), booking.TotalPrice, details)
	if err != nil {
		if !errors.Is(err, domain.ErrPaymentDeclined) {
			err = fmt.Errorf("%w: %w", domain.ErrPaymentDeclined, err)
		}
		return nil, err
	}

	if receipt == nil {
		return nil, fmt.Errorf("%w: gateway returned no receipt", domain.ErrPaymentDeclined)
	}

	return receipt, nil
}

// abandonCharge undoes a successful charge whose booking could not be
// committed, usually because the reaper expired the claim first.
func (o *Orchestrator) abandonCharge(
	ctx context.Context,
	booking *domain.Booking,
	gateway domain.PaymentGateway,
	receipt *domain.Receipt,
	cause error) error {

	o.logger.ErrorContext(ctx, "charged booking could not be committed",
		"booking_id", booking.ID,
		"transaction_id", receipt.TransactionID,
		"error", cause,
	)

	if err := o.seats.Revoke(ctx, booking.ShowtimeID, booking.SeatIDs, booking.ID); err != nil {
		o.logger.ErrorContext(ctx, "failed to return seats of abandoned booking", "booking_id", booking.ID, "error", err)
	}

	if _, err := o.bookings.UpdateStatus(ctx, booking.ID, domain.BookingCancelled, nil); err != nil &&
		!errors.Is(err, domain.ErrAlreadyTerminal) {
		o.logger.ErrorContext(ctx, "failed to cancel abandoned booking", "booking_id", booking.ID, "error", err)
	}

	if err := gateway.Refund(ctx, booking.TotalPrice, receipt.TransactionID); err != nil {
		o.logger.ErrorContext(ctx, "refund failed, manual reconciliation required",
			"booking_id", booking.ID,
			"transaction_id", receipt.TransactionID,
			"amount", booking.TotalPrice.StringFixed(2),
			"error", err,
		)
		return errors.Join(domain.ErrReservationExpired, refundFailure(err))
	}

	if errors.Is(cause, domain.ErrInvalidStateTransition) || errors.Is(cause, domain.ErrAlreadyTerminal) {
		return domain.ErrReservationExpired
	}

	return fmt.Errorf("commit booking %s: %w", booking.ID, cause)
}

// cancelPending is the compensation for a failed charge.
func (o *Orchestrator) cancelPending(ctx context.Context, booking *domain.Booking) {
	o.releaseSeats(ctx, booking)

	_, err := o.bookings.UpdateStatus(ctx, booking.ID, domain.BookingCancelled, nil)
	if err != nil && !errors.Is(err, domain.ErrAlreadyTerminal) {
		o.logger.ErrorContext(ctx, "failed to cancel booking after declined payment", "booking_id", booking.ID, "error", err)
		return
	}

	o.metrics.bookingsCancelled.Add(ctx, 1)
}

func (o *Orchestrator) releaseSeats(ctx context.Context, booking *domain.Booking) {
	err := o.seats.Release(ctx, booking.ShowtimeID, booking.SeatIDs, booking.ID)
	if err == nil {
		return
	}

	// The reaper may have released the claim already.
	o.logger.ErrorContext(ctx, "failed to release seats",
		"booking_id", booking.ID,
		"showtime_id", booking.ShowtimeID,
		"seat_ids", booking.SeatIDs,
		"error", err,
	)
}

// CancelBooking cancels a PENDING or CONFIRMED booking, returns its seats
// and refunds a captured payment. The cancellation is committed even when
// the refund fails; the returned error then wraps ErrRefundFailed.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	ctx, span := o.tracer.Start(ctx, "booking.cancel", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
	))
	defer span.End()

	cancelled, err := o.cancel(ctx, bookingID)
	if err != nil {
		recordError(span, err)
	}

	return cancelled, err
}

func (o *Orchestrator) cancel(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := o.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingCancelled || booking.Status == domain.BookingExpired {
		return nil, domain.ErrAlreadyTerminal
	}

	if _, busy := o.inflight.Load(booking.ID); busy {
		return nil, domain.ErrPaymentInProgress
	}

	showtime, err := o.showtimes.GetShowtime(ctx, booking.ShowtimeID)
	if err != nil {
		return nil, err
	}

	if err := o.seats.Revoke(ctx, booking.ShowtimeID, booking.SeatIDs, booking.ID); err != nil {
		return nil, err
	}

	cancelled, err := o.bookings.UpdateStatus(ctx, booking.ID, domain.BookingCancelled, nil)
	if err != nil {
		return nil, err
	}

	o.metrics.bookingsCancelled.Add(ctx, 1)
	o.logger.InfoContext(ctx, "booking cancelled", "booking_id", booking.ID, "previous_status", booking.Status)

	// The refund follows the committed row: a charge may have landed after
	// booking was read.
	var refundErr error
	if cancelled.TransactionID != nil {
		gateway := o.payments.Resolve(cancelled.PaymentMethod)

		if err := gateway.Refund(ctx, cancelled.TotalPrice, *cancelled.TransactionID); err != nil {
			o.logger.ErrorContext(ctx, "refund failed, manual reconciliation required",
				"booking_id", cancelled.ID,
				"transaction_id", *cancelled.TransactionID,
				"amount", cancelled.TotalPrice.StringFixed(2),
				"error", err,
			)
			refundErr = refundFailure(err)
		}
	}

	o.publisher.PublishCancelled(ctx, o.event(ctx, cancelled, showtime))

	return cancelled, refundErr
}

func (o *Orchestrator) GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return o.bookings.Get(ctx, bookingID)
}

func (o *Orchestrator) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return o.bookings.ListByUser(ctx, userID)
}

// SeatLayout is the read side used for seat selection.
func (o *Orchestrator) SeatLayout(ctx context.Context, showtimeID int64) ([]domain.Seat, error) {
	if _, err := o.showtimes.GetShowtime(ctx, showtimeID); err != nil {
		return nil, err
	}

	return o.seats.Layout(ctx, showtimeID)
}

func (o *Orchestrator) InitSeatLayout(ctx context.Context, showtimeID int64) ([]domain.Seat, error) {
	showtime, err := o.showtimes.GetShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	seats, err := o.seats.InitLayout(ctx, showtime.ID, showtime.Capacity)
	if err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "seat layout created", "showtime_id", showtime.ID, "seats", len(seats))

	return seats, nil
}

func (o *Orchestrator) event(ctx context.Context, booking *domain.Booking, showtime *domain.Showtime) domain.BookingEvent {
	event := domain.BookingEvent{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		MovieID:       booking.MovieID,
		MovieTitle:    showtime.MovieTitle,
		ShowtimeID:    booking.ShowtimeID,
		StartsAt:      showtime.StartsAt,
		TotalPrice:    booking.TotalPrice,
		PaymentMethod: booking.PaymentMethod,
		OccurredAt:    o.now(),
	}

	if booking.TransactionID != nil {
		event.TransactionID = *booking.TransactionID
	}

	seats, err := o.seats.Seats(ctx, booking.ShowtimeID, booking.SeatIDs)
	if err != nil {
		o.logger.WarnContext(ctx, "could not resolve seat labels", "booking_id", booking.ID, "error", err)
		return event
	}

	event.SeatLabels = make([]string, len(seats))
	for i, s := range seats {
		event.SeatLabels[i] = s.Label
	}

	return event
}

func validateSeatIDs(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one seat is required", domain.ErrInvalidBookingRequest)
	}

	if len(ids) > MaxSeatsPerBooking {
		return fmt.Errorf("%w: at most %d seats per booking", domain.ErrInvalidBookingRequest, MaxSeatsPerBooking)
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: seat %s is listed twice", domain.ErrInvalidBookingRequest, id)
		}
		seen[id] = struct{}{}
	}

	return nil
}

func refundFailure(err error) error {
	if errors.Is(err, domain.ErrRefundFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRefundFailed, err)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
