package payment

import (
	"log/slog"
	"maps"
	"strings"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// Registry maps method tags to gateways. It is built once and never
// modified, so lookups need no locking.
type Registry struct {
	gateways map[domain.PaymentMethod]domain.PaymentGateway
	fallback domain.PaymentGateway
	logger   *slog.Logger
}

func NewRegistry(
	logger *slog.Logger,
	fallback domain.PaymentGateway,
	gateways map[domain.PaymentMethod]domain.PaymentGateway) *Registry {

	return &Registry{
		gateways: maps.Clone(gateways),
		fallback: fallback,
		logger:   logger,
	}
}

// NewDefaultRegistry wires card tags (CARD, VISA, DEBIT_CARD) to card, and the
// simulated cash and net banking gateways. Cash is the fallback.
func NewDefaultRegistry(logger *slog.Logger, card domain.PaymentGateway, latencyScale float64) *Registry {
	cash := NewCashGateway(DefaultCashLatency.Scale(latencyScale))

	return NewRegistry(logger, cash, map[domain.PaymentMethod]domain.PaymentGateway{
		domain.PaymentCard:       card,
		domain.PaymentVisa:       card,
		domain.PaymentDebitCard:  card,
		domain.PaymentCash:       cash,
		domain.PaymentNetBanking: NewNetBankingGateway(DefaultNetBankingLatency.Scale(latencyScale)),
	})
}

// Resolve returns the gateway for method. Unknown tags fall back to cash.
func (r *Registry) Resolve(method domain.PaymentMethod) domain.PaymentGateway {
	gateway, ok := r.gateways[domain.PaymentMethod(strings.ToUpper(string(method)))]
	if !ok {
		r.logger.Warn("unknown payment method, falling back", "method", method, "fallback", r.fallback.Method())
		return r.fallback
	}

	return gateway
}
