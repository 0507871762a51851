package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/jsonutil"
)

// UserIDHeader carries the id of the user authenticated by the gateway in
// front of this service.
const UserIDHeader = "X-User-ID"

type contextKey string

const userIDKey = contextKey("userID")

// RecoverPanic turns a handler panic into a logged 500 response and closes
// the connection.
func RecoverPanic(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "handler panicked",
						"panic", err,
						"method", r.Method,
						"uri", r.URL.RequestURI(),
						"request_id", middleware.GetReqID(r.Context()),
					)

					writeError(w, r, http.StatusInternalServerError,
						"The server encountered a problem and could not process your request",
						http.Header{"Connection": []string{"close"}})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Resource not found", nil)
}

func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed for the requested resource", nil)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, headers http.Header) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	jsonutil.WriteJSON(w, status, resp, headers)
}

// RequireUser rejects requests without a positive numeric X-User-ID header
// and stores the id in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
		if err != nil || userID < 1 {
			writeError(w, r, http.StatusUnauthorized, "You must be authenticated to access this resource", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
