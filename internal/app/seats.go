package app

import (
	"net/http"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (app *Application) GetSeatMapHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := readShowtimeIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seats, err := app.bookings.SeatLayout(r.Context(), showtimeID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if len(seats) == 0 {
		app.logger.WarnContext(r.Context(), "seat map not found for showtime", "showtime_id", showtimeID)
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatMapResponse(showtimeID, seats), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) InitSeatLayoutHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := readShowtimeIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seats, err := app.bookings.InitSeatLayout(r.Context(), showtimeID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toSeatMapResponse(showtimeID, seats), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// toSeatMapResponse groups seats by row, keeping the layout order.
func toSeatMapResponse(showtimeID int64, seats []domain.Seat) api.SeatMapResponse {
	resp := api.SeatMapResponse{
		ShowtimeId: showtimeID,
		Capacity:   len(seats),
		SeatRows:   []api.SeatRow{},
	}

	rowIndex := make(map[int]int)

	for _, s := range seats {
		if s.Status == domain.SeatAvailable {
			resp.Available++
		}

		idx, ok := rowIndex[s.Row]
		if !ok {
			idx = len(resp.SeatRows)
			rowIndex[s.Row] = idx
			resp.SeatRows = append(resp.SeatRows, api.SeatRow{Row: domain.RowLabel(s.Row)})
		}

		resp.SeatRows[idx].Seats = append(resp.SeatRows[idx].Seats, api.Seat{
			Id:     s.ID,
			Label:  s.Label,
			Row:    s.Row,
			Column: s.Col,
			Status: api.SeatStatus(s.Status),
		})
	}

	return resp
}
