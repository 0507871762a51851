package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
)

const minCardDetailsLength = 19

// Latency is the simulated processing time of a gateway.
type Latency struct {
	Charge time.Duration
	Refund time.Duration
}

var (
	DefaultCardLatency       = Latency{Charge: 500 * time.Millisecond, Refund: 500 * time.Millisecond}
	DefaultCashLatency       = Latency{Charge: time.Second, Refund: 500 * time.Millisecond}
	DefaultNetBankingLatency = Latency{Charge: 800 * time.Millisecond, Refund: 600 * time.Millisecond}
)

// Scale multiplies both latencies, e.g. 0 for tests.
func (l Latency) Scale(factor float64) Latency {
	return Latency{
		Charge: time.Duration(float64(l.Charge) * factor),
		Refund: time.Duration(float64(l.Refund) * factor),
	}
}

// simulatedGateway settles payments in process after a fixed delay. Card,
// cash and net banking differ only in their validation rule and latency.
type simulatedGateway struct {
	method   domain.PaymentMethod
	latency  Latency
	validate func(details string) bool
}

func NewCardGateway(latency Latency) domain.PaymentGateway {
	return &simulatedGateway{
		method:  domain.PaymentCard,
		latency: latency,
		validate: func(details string) bool {
			return len(details) >= minCardDetailsLength
		},
	}
}

func NewCashGateway(latency Latency) domain.PaymentGateway {
	return &simulatedGateway{
		method:  domain.PaymentCash,
		latency: latency,
		validate: func(details string) bool {
			return strings.TrimSpace(details) != ""
		},
	}
}

func NewNetBankingGateway(latency Latency) domain.PaymentGateway {
	return &simulatedGateway{
		method:  domain.PaymentNetBanking,
		latency: latency,
		validate: func(details string) bool {
			return strings.Contains(details, "@")
		},
	}
}

func (g *simulatedGateway) Method() domain.PaymentMethod {
	return g.method
}

func (g *simulatedGateway) Validate(details string) bool {
	return g.validate(details)
}

func (g *simulatedGateway) Charge(ctx context.Context, amount decimal.Decimal, details string) (*domain.Receipt, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", domain.ErrPaymentDeclined, amount)
	}

	if !g.validate(details) {
		return nil, fmt.Errorf("%w: invalid %s payment details", domain.ErrPaymentDeclined, g.method)
	}

	if err := sleep(ctx, g.latency.Charge); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPaymentDeclined, err)
	}

	return &domain.Receipt{
		TransactionID: "TXN-" + strings.ToUpper(uuid.NewString()),
		ProcessedAt:   time.Now().UTC(),
	}, nil
}

func (g *simulatedGateway) Refund(ctx context.Context, amount decimal.Decimal, transactionID string) error {
	if transactionID == "" {
		return fmt.Errorf("%w: missing transaction id", domain.ErrRefundFailed)
	}

	if err := sleep(ctx, g.latency.Refund); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrRefundFailed, transactionID, err)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
