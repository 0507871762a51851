package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type SMSSender interface {
	SendSMS(ctx context.Context, phone, text string) error
}

// LogSMSSender writes messages to the log in place of an SMS provider.
type LogSMSSender struct {
	logger *slog.Logger
}

func NewLogSMSSender(logger *slog.Logger) *LogSMSSender {
	return &LogSMSSender{
		logger: logger,
	}
}

func (l *LogSMSSender) SendSMS(ctx context.Context, phone, text string) error {
	l.logger.InfoContext(ctx, "sms sent", "phone", phone, "text", text)
	return nil
}

type SMSSink struct {
	sender SMSSender
	users  domain.UserRepository
}

func NewSMSSink(sender SMSSender, users domain.UserRepository) *SMSSink {
	return &SMSSink{
		sender: sender,
		users:  users,
	}
}

func (s *SMSSink) Name() string {
	return "sms"
}

func (s *SMSSink) Notify(ctx context.Context, event domain.BookingEvent) error {
	user, err := s.users.GetByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("look up user %d: %w", event.UserID, err)
	}

	// no phone on file
	if user.Phone == "" {
		return nil
	}

	text, err := smsText(event)
	if err != nil {
		return err
	}

	return s.sender.SendSMS(ctx, user.Phone, text)
}

func smsText(event domain.BookingEvent) (string, error) {
	switch event.Type {
	case domain.EventBookingConfirmed:
		return fmt.Sprintf(
			"Your booking for %s is confirmed. Showtime: %s. Seats: %s. Price: %s",
			event.MovieTitle,
			event.StartsAt.Format("Jan 2, 2006 15:04"),
			strings.Join(event.SeatLabels, ", "),
			event.TotalPrice.StringFixed(2),
		), nil
	case domain.EventBookingCancelled:
		return fmt.Sprintf(
			"Your booking for %s has been cancelled. Refund will be processed soon.",
			event.MovieTitle,
		), nil
	}

	return "", fmt.Errorf("no sms text for event %q", event.Type)
}
