package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/mailer"
)

var mailTemplates = map[domain.BookingEventType]string{
	domain.EventBookingConfirmed: "booking_confirmed.tmpl",
	domain.EventBookingCancelled: "booking_cancelled.tmpl",
}

type MailSink struct {
	mailer mailer.Mailer
	users  domain.UserRepository
}

func NewMailSink(m mailer.Mailer, users domain.UserRepository) *MailSink {
	return &MailSink{
		mailer: m,
		users:  users,
	}
}

func (s *MailSink) Name() string {
	return "mail"
}

type mailData struct {
	Name       string
	MovieTitle string
	StartsAt   time.Time
	TotalPrice string
	SeatLabels []string
	BookingID  string
}

func (s *MailSink) Notify(ctx context.Context, event domain.BookingEvent) error {
	tmpl, ok := mailTemplates[event.Type]
	if !ok {
		return fmt.Errorf("no mail template for event %q", event.Type)
	}

	user, err := s.users.GetByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("look up user %d: %w", event.UserID, err)
	}

	data := mailData{
		Name:       user.FullName,
		MovieTitle: event.MovieTitle,
		StartsAt:   event.StartsAt,
		TotalPrice: event.TotalPrice.StringFixed(2),
		SeatLabels: event.SeatLabels,
		BookingID:  event.BookingID.String(),
	}

	return s.mailer.Send(user.Email, tmpl, data)
}
