package app

import (
	"net/http"
	"strings"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	userID := app.contextGetUserID(r)

	var input api.CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	created, err := app.bookings.InitiateBooking(r.Context(), booking.InitiateRequest{
		UserID:         userID,
		MovieID:        input.MovieId,
		ShowtimeID:     input.ShowtimeId,
		SeatIDs:        input.SeatIds,
		PaymentMethod:  domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(input.PaymentMethod))),
		PaymentDetails: input.PaymentDetails,
		DeferPayment:   input.DeferPayment,
	})
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	status := http.StatusCreated
	if created.Status == domain.BookingPending {
		status = http.StatusAccepted
	}

	err = app.writeJSON(w, status, toApiBooking(created), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := app.ownedBooking(w, r)
	if !ok {
		return
	}

	err := app.writeJSON(w, http.StatusOK, toApiBooking(b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := app.ownedBooking(w, r)
	if !ok {
		return
	}

	var input api.ConfirmPaymentRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	confirmed, err := app.bookings.ConfirmPayment(r.Context(), b.ID, input.PaymentDetails)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBooking(confirmed), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := app.ownedBooking(w, r)
	if !ok {
		return
	}

	// A failed refund still cancels the booking; the client gets a 502.
	cancelled, err := app.bookings.CancelBooking(r.Context(), b.ID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBooking(cancelled), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetUserBookingsHandler(w http.ResponseWriter, r *http.Request) {
	userID := app.contextGetUserID(r)

	bookings, err := app.bookings.ListUserBookings(r.Context(), userID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.BookingsResponse{Bookings: toApiBookings(bookings)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ownedBooking loads the booking named in the path. Bookings of other users
// are reported as not found.
func (app *Application) ownedBooking(w http.ResponseWriter, r *http.Request) (*domain.Booking, bool) {
	userID := app.contextGetUserID(r)

	bookingID, err := readBookingIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	b, err := app.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return nil, false
	}

	if b.UserID != userID {
		app.notFoundResponse(w, r)
		return nil, false
	}

	return b, true
}
