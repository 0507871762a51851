package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type SeatsTestSuite struct {
	suite.Suite
	app      *Application
	bookings *mocks.MockBookingService
}

func (s *SeatsTestSuite) SetupTest() {
	s.bookings = new(mocks.MockBookingService)
	s.app = newTestApplication(s.bookings)
}

func TestSeatsSuite(t *testing.T) {
	suite.Run(t, new(SeatsTestSuite))
}

func (s *SeatsTestSuite) TestGetSeatMap() {
	seatA1, seatA2, seatB1 := uuid.New(), uuid.New(), uuid.New()
	owner := uuid.New()

	tests := []struct {
		name           string
		url            string
		setupMocks     func()
		wantStatus     int
		wantResponse   *api.SeatMapResponse
		wantErrMessage string
	}{
		{
			name:           "should fail when showtime ID is not a positive number",
			url:            "/v1/showtimes/0/seats",
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "showtime ID must be greater than zero",
		},
		{
			name: "should fail when showtime does not exist",
			url:  "/v1/showtimes/999/seats",
			setupMocks: func() {
				s.bookings.On("SeatLayout", mock.Anything, int64(999)).Return(nil, domain.ErrShowtimeNotFound)
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: domain.ErrShowtimeNotFound.Error(),
		},
		{
			name: "should fail when showtime has no seat layout",
			url:  "/v1/showtimes/3/seats",
			setupMocks: func() {
				s.bookings.On("SeatLayout", mock.Anything, int64(3)).Return([]domain.Seat{}, nil)
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
		{
			name: "should fail when the store fails",
			url:  "/v1/showtimes/1/seats",
			setupMocks: func() {
				s.bookings.On("SeatLayout", mock.Anything, int64(1)).Return(nil, fmt.Errorf("database error"))
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
		{
			name: "should return seat map grouped by row",
			url:  "/v1/showtimes/1/seats",
			setupMocks: func() {
				s.bookings.On("SeatLayout", mock.Anything, int64(1)).Return([]domain.Seat{
					{ID: seatA1, ShowtimeID: 1, Row: 1, Col: 1, Label: "A1", Status: domain.SeatAvailable},
					{ID: seatA2, ShowtimeID: 1, Row: 1, Col: 2, Label: "A2", Status: domain.SeatReserved, BookingID: &owner},
					{ID: seatB1, ShowtimeID: 1, Row: 2, Col: 1, Label: "B1", Status: domain.SeatSold, BookingID: &owner},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantResponse: &api.SeatMapResponse{
				ShowtimeId: 1,
				Capacity:   3,
				Available:  1,
				SeatRows: []api.SeatRow{
					{
						Row: "A",
						Seats: []api.Seat{
							{Id: seatA1, Label: "A1", Row: 1, Column: 1, Status: api.SeatAvailable},
							{Id: seatA2, Label: "A2", Row: 1, Column: 2, Status: api.SeatReserved},
						},
					},
					{
						Row: "B",
						Seats: []api.Seat{
							{Id: seatB1, Label: "B1", Row: 2, Column: 1, Status: api.SeatSold},
						},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.bookings.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodGet, tt.url, nil, 0)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantResponse != nil {
				var response api.SeatMapResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				s.Require().NoError(err, "Failed to decode response")

				diff := cmp.Diff(tt.wantResponse, &response)
				s.Empty(diff, "Response mismatch (-want +got):\n%s", diff)
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func (s *SeatsTestSuite) TestInitSeatLayout() {
	tests := []struct {
		name           string
		userID         int64
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:       "should require an authenticated user",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "should fail when layout already exists",
			userID: testUserID,
			setupMocks: func() {
				s.bookings.On("InitSeatLayout", mock.Anything, int64(1)).Return(nil, domain.ErrLayoutExists)
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrLayoutExists.Error(),
		},
		{
			name:   "should create layout",
			userID: testUserID,
			setupMocks: func() {
				s.bookings.On("InitSeatLayout", mock.Anything, int64(1)).Return(domain.NewLayout(1, 12), nil)
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.bookings.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodPost, "/v1/showtimes/1/seats", nil, tt.userID)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				var response api.SeatMapResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
				s.Equal(12, response.Available)
				s.Len(response.SeatRows, 2)
				s.Len(response.SeatRows[1].Seats, 2)
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}
