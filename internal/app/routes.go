package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	appmw "github.com/metinatakli/cinema-seat-booking/internal/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(appmw.NotFoundHandler)
	r.MethodNotAllowed(appmw.MethodNotAllowedHandler)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(appmw.RecoverPanic(app.logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.health.GetHealth)
		r.Get("/showtimes/{showtimeID}/seats", app.GetSeatMapHandler)

		r.Group(func(r chi.Router) {
			r.Use(appmw.RequireUser)

			r.Post("/showtimes/{showtimeID}/seats", app.InitSeatLayoutHandler)

			r.Post("/bookings", app.CreateBookingHandler)
			r.Get("/bookings/{bookingID}", app.GetBookingHandler)
			r.Post("/bookings/{bookingID}/payment", app.ConfirmPaymentHandler)
			r.Post("/bookings/{bookingID}/cancel", app.CancelBookingHandler)

			r.Get("/users/me/bookings", app.GetUserBookingsHandler)
		})
	})

	return r
}
