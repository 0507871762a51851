package booking_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

func (s *OrchestratorTestSuite) TestExpireStaleExpiresOnlyOldReservations() {
	o := s.newOrchestrator()

	old := s.request(s.layout[0], s.layout[1])
	old.DeferPayment = true
	stale, err := o.InitiateBooking(s.ctx, old)
	s.Require().NoError(err)

	s.clock.Advance(8 * time.Minute)

	recent := s.request(s.layout[2])
	recent.DeferPayment = true
	fresh, err := o.InitiateBooking(s.ctx, recent)
	s.Require().NoError(err)

	s.clock.Advance(3 * time.Minute)

	n, err := o.ExpireStale(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	got, err := o.GetBooking(s.ctx, stale.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingExpired, got.Status)
	s.Equal(domain.SeatAvailable, s.seatStatus(s.layout[0].ID))
	s.Equal(domain.SeatAvailable, s.seatStatus(s.layout[1].ID))

	got, err = o.GetBooking(s.ctx, fresh.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingPending, got.Status)
	s.Equal(domain.SeatReserved, s.seatStatus(s.layout[2].ID))

	n, err = o.ExpireStale(s.ctx)
	s.Require().NoError(err)
	s.Zero(n, "a second sweep finds nothing")

	_, err = o.ConfirmPayment(s.ctx, stale.ID, validCard)
	s.ErrorIs(err, domain.ErrAlreadyTerminal)

	_, err = o.CancelBooking(s.ctx, stale.ID)
	s.ErrorIs(err, domain.ErrAlreadyTerminal)
}

func (s *OrchestratorTestSuite) TestExpireStaleLeavesSoldSeats() {
	s.acceptCharges()
	o := s.newOrchestrator()

	confirmed, err := o.InitiateBooking(s.ctx, s.request(s.layout[4]))
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)

	n, err := o.ExpireStale(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)

	got, err := o.GetBooking(s.ctx, confirmed.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingConfirmed, got.Status)
	s.Equal(domain.SeatSold, s.seatStatus(s.layout[4].ID))
}

func (s *OrchestratorTestSuite) TestPaymentAfterExpiryIsRefunded() {
	o := s.newOrchestrator()

	s.gateway.On("Charge", mock.Anything, mock.Anything, validCard).Run(func(mock.Arguments) {
		// the payment provider is slow enough for the reaper to run
		s.clock.Advance(11 * time.Minute)
		_, err := o.ExpireStale(context.Background())
		s.Require().NoError(err)
	}).Return(&domain.Receipt{TransactionID: "TXN-LATE", ProcessedAt: s.clock.Now()}, nil)
	s.gateway.On("Refund", mock.Anything, mock.Anything, "TXN-LATE").Return(nil)

	_, err := o.InitiateBooking(s.ctx, s.request(s.layout[0]))
	s.ErrorIs(err, domain.ErrReservationExpired)

	s.gateway.AssertCalled(s.T(), "Refund", mock.Anything, mock.Anything, "TXN-LATE")
	s.Equal(domain.SeatAvailable, s.seatStatus(s.layout[0].ID))

	bookings, err := o.ListUserBookings(s.ctx, testUserID)
	s.Require().NoError(err)
	s.Require().Len(bookings, 1)
	s.Equal(domain.BookingExpired, bookings[0].Status)

	confirmed, _ := s.publisher.counts()
	s.Zero(confirmed)
}

func (s *OrchestratorTestSuite) TestPaymentAfterExpiryWithFailedRefund() {
	o := s.newOrchestrator()

	s.gateway.On("Charge", mock.Anything, mock.Anything, validCard).Run(func(mock.Arguments) {
		s.clock.Advance(11 * time.Minute)
		_, err := o.ExpireStale(context.Background())
		s.Require().NoError(err)
	}).Return(&domain.Receipt{TransactionID: "TXN-LATE", ProcessedAt: s.clock.Now()}, nil)
	s.gateway.On("Refund", mock.Anything, mock.Anything, "TXN-LATE").Return(domain.ErrRefundFailed)

	_, err := o.InitiateBooking(s.ctx, s.request(s.layout[0]))
	s.ErrorIs(err, domain.ErrReservationExpired)
	s.ErrorIs(err, domain.ErrRefundFailed)
}

func (s *OrchestratorTestSuite) TestExpiredSeatsCanBeBookedAgain() {
	s.acceptCharges()
	o := s.newOrchestrator()

	req := s.request(s.layout[9])
	req.DeferPayment = true
	_, err := o.InitiateBooking(s.ctx, req)
	s.Require().NoError(err)

	s.clock.Advance(15 * time.Minute)
	_, err = o.ExpireStale(s.ctx)
	s.Require().NoError(err)

	got, err := o.InitiateBooking(s.ctx, s.request(s.layout[9]))
	s.Require().NoError(err)
	s.Equal(domain.BookingConfirmed, got.Status)
}

func (s *OrchestratorTestSuite) TestRunReaperStopsOnCancel() {
	o := s.newOrchestrator()

	req := s.request(s.layout[0])
	req.DeferPayment = true
	pending, err := o.InitiateBooking(s.ctx, req)
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() {
		done <- o.RunReaper(ctx, 5*time.Millisecond)
	}()

	s.Eventually(func() bool {
		got, err := o.GetBooking(s.ctx, pending.ID)
		return err == nil && got.Status == domain.BookingExpired
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("reaper did not stop")
	}
}

func (s *OrchestratorTestSuite) TestExpireStaleSkipsClaimsWithoutBooking() {
	o := s.newOrchestrator()

	_, err := s.seats.Claim(s.ctx, testShowtimeID, []uuid.UUID{s.layout[6].ID}, uuid.New())
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)

	n, err := o.ExpireStale(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
	s.Equal(domain.SeatAvailable, s.seatStatus(s.layout[6].ID))
}
