package mocks

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockNotificationSink struct {
	mock.Mock
	domain.NotificationSink
}

func (m *MockNotificationSink) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotificationSink) Notify(ctx context.Context, event domain.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
