package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/jsonutil"
)

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	return jsonutil.WriteJSON(w, status, data, headers)
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return jsonutil.ReadJSON(w, r, dst)
}

func readShowtimeIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "showtimeID"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("showtime ID must be greater than zero")
	}

	return id, nil
}

func readBookingIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		return uuid.Nil, errors.New("booking ID must be a valid UUID")
	}

	return id, nil
}

func toApiBooking(b *domain.Booking) api.Booking {
	return api.Booking{
		Id:            b.ID,
		UserId:        b.UserID,
		MovieId:       b.MovieID,
		ShowtimeId:    b.ShowtimeID,
		SeatIds:       b.SeatIDs,
		TotalPrice:    b.TotalPrice.StringFixed(2),
		Status:        api.BookingStatus(b.Status),
		PaymentMethod: string(b.PaymentMethod),
		BookedAt:      b.BookedAt,
		PaidAt:        b.PaidAt,
		TransactionId: b.TransactionID,
	}
}

func toApiBookings(bookings []domain.Booking) []api.Booking {
	resp := make([]api.Booking, len(bookings))
	for i := range bookings {
		resp[i] = toApiBooking(&bookings[i])
	}

	return resp
}
