package mocks

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockPaymentGateway struct {
	mock.Mock
	domain.PaymentGateway
}

func (m *MockPaymentGateway) Method() domain.PaymentMethod {
	args := m.Called()
	return args.Get(0).(domain.PaymentMethod)
}

func (m *MockPaymentGateway) Validate(details string) bool {
	args := m.Called(details)
	return args.Bool(0)
}

func (m *MockPaymentGateway) Charge(ctx context.Context, amount decimal.Decimal, details string) (*domain.Receipt, error) {
	args := m.Called(ctx, amount, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, amount decimal.Decimal, transactionID string) error {
	args := m.Called(ctx, amount, transactionID)
	return args.Error(0)
}
