package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Receipt struct {
	TransactionID string
	ProcessedAt   time.Time
}

// PaymentGateway charges and refunds through one payment method.
// A failed charge returns an error wrapping ErrPaymentDeclined and a failed
// refund one wrapping ErrRefundFailed.
type PaymentGateway interface {
	Method() PaymentMethod
	Validate(details string) bool
	Charge(ctx context.Context, amount decimal.Decimal, details string) (*Receipt, error)
	Refund(ctx context.Context, amount decimal.Decimal, transactionID string) error
}

type idempotencyKey struct{}

// WithIdempotencyKey tags the charge made with ctx so a gateway can collapse
// retries of it into one payment.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// IdempotencyKey returns "" when ctx carries no key.
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey{}).(string)
	return key
}
