package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// StripeCardGateway charges a Stripe payment method id (pm_...) with an
// immediately confirmed PaymentIntent, sending the context's idempotency key
// so a retried charge is not billed twice. stripe.Key must be set by the
// caller.
type StripeCardGateway struct {
	currency string
}

func NewStripeCardGateway(currency string) *StripeCardGateway {
	return &StripeCardGateway{
		currency: currency,
	}
}

func (s *StripeCardGateway) Method() domain.PaymentMethod {
	return domain.PaymentCard
}

func (s *StripeCardGateway) Validate(details string) bool {
	return strings.HasPrefix(details, "pm_")
}

func (s *StripeCardGateway) Charge(ctx context.Context, amount decimal.Decimal, details string) (*domain.Receipt, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", domain.ErrPaymentDeclined, amount)
	}

	if !s.Validate(details) {
		return nil, fmt.Errorf("%w: invalid stripe payment method", domain.ErrPaymentDeclined)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toCents(amount)),
		Currency:      stripe.String(s.currency),
		PaymentMethod: stripe.String(details),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if key := domain.IdempotencyKey(ctx); key != "" {
		params.SetIdempotencyKey(key)
	}
	// The charge outlives a cancelled request.
	params.Context = context.WithoutCancel(ctx)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPaymentDeclined, err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment intent %s is %s", domain.ErrPaymentDeclined, pi.ID, pi.Status)
	}

	return &domain.Receipt{
		TransactionID: pi.ID,
		ProcessedAt:   time.Unix(pi.Created, 0).UTC(),
	}, nil
}

func (s *StripeCardGateway) Refund(ctx context.Context, amount decimal.Decimal, transactionID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
		Amount:        stripe.Int64(toCents(amount)),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrRefundFailed, transactionID, err)
	}

	if r.Status == stripe.RefundStatusFailed || r.Status == stripe.RefundStatusCanceled {
		return fmt.Errorf("%w: refund %s is %s", domain.ErrRefundFailed, r.ID, r.Status)
	}

	return nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
