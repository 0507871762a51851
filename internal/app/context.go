package app

import (
	"net/http"

	appmw "github.com/metinatakli/cinema-seat-booking/internal/middleware"
)

func (app *Application) contextGetUserID(r *http.Request) int64 {
	userID, ok := appmw.UserID(r.Context())
	if !ok {
		panic("missing user id from context")
	}

	return userID
}
