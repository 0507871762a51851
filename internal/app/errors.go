package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
)

const (
	ErrInternalServer   = "The server encountered a problem and could not process your request"
	ErrNotFound         = "The requested resource not found"
	ErrValidationFailed = "One or more fields are invalid"
	ErrPaymentDeclined  = "Payment was declined and the seats were released"
	ErrRefundPending    = "The booking was cancelled but the refund could not be processed, it will be retried manually"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.ErrorContext(r.Context(), err.Error(),
		"method", method,
		"uri", uri,
		"request_id", middleware.GetReqID(r.Context()),
	)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrValidationFailed,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: make([]api.ValidationError, len(validationErrs)),
	}

	for i, fieldErr := range validationErrs {
		resp.ValidationErrors[i] = api.ValidationError{
			Field: fieldErr.Field(),
			Issue: appvalidator.ValidationMessage(fieldErr),
		}
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// bookingErrorResponse maps errors of the booking pipeline to responses.
// Anything unrecognised is a 500.
func (app *Application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var unavailable *domain.SeatUnavailableError

	switch {
	case errors.As(err, &unavailable):
		app.errorResponse(w, r, http.StatusConflict, fmt.Sprintf("Seat %s is no longer available", unavailable.SeatID))

	case errors.Is(err, domain.ErrSeatUnavailable),
		errors.Is(err, domain.ErrAlreadyTerminal),
		errors.Is(err, domain.ErrPaymentInProgress),
		errors.Is(err, domain.ErrLayoutExists):
		app.errorResponse(w, r, http.StatusConflict, rootMessage(err))

	case errors.Is(err, domain.ErrReservationExpired):
		if errors.Is(err, domain.ErrRefundFailed) {
			app.logError(r, err)
		}
		app.errorResponse(w, r, http.StatusConflict, domain.ErrReservationExpired.Error())

	case errors.Is(err, domain.ErrPaymentDeclined):
		app.errorResponse(w, r, http.StatusPaymentRequired, ErrPaymentDeclined)

	case errors.Is(err, domain.ErrRefundFailed):
		app.logError(r, err)
		app.errorResponse(w, r, http.StatusBadGateway, ErrRefundPending)

	case errors.Is(err, domain.ErrRecordNotFound):
		app.errorResponse(w, r, http.StatusNotFound, rootMessage(err))

	case errors.Is(err, domain.ErrInvalidBookingRequest):
		app.badRequestResponse(w, r, err)

	default:
		app.serverErrorResponse(w, r, err)
	}
}

// rootMessage returns the message of the sentinel err wraps, hiding the
// wrapping context from clients.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrSeatUnavailable,
		domain.ErrAlreadyTerminal,
		domain.ErrPaymentInProgress,
		domain.ErrLayoutExists,
		domain.ErrShowtimeNotFound,
		domain.ErrBookingNotFound,
		domain.ErrSeatNotFound,
		domain.ErrUserNotFound,
		domain.ErrRecordNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return err.Error()
}
