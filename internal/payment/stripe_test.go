package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func useStripeServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()

	srv := httptest.NewServer(handler)

	prevKey := stripe.Key
	stripe.Key = "sk_test_123"
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(srv.URL),
		HTTPClient:    srv.Client(),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelNull},
	}))

	t.Cleanup(func() {
		srv.Close()
		stripe.Key = prevKey
		stripe.SetBackend(stripe.APIBackend, nil)
	})
}

func TestStripeCardGatewayCharge(t *testing.T) {
	var form map[string][]string

	useStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","status":"succeeded","created":1767225600,"amount":2550,"currency":"usd"}`))
	})

	gateway := NewStripeCardGateway("usd")

	receipt, err := gateway.Charge(context.Background(), decimal.RequireFromString("25.50"), "pm_card_visa")
	require.NoError(t, err)

	assert.Equal(t, "pi_123", receipt.TransactionID)
	assert.Equal(t, int64(1767225600), receipt.ProcessedAt.Unix())
	assert.Equal(t, []string{"2550"}, form["amount"])
	assert.Equal(t, []string{"pm_card_visa"}, form["payment_method"])
	assert.Equal(t, []string{"true"}, form["confirm"])
}

func TestStripeCardGatewayChargeIsIdempotentAndDetached(t *testing.T) {
	var idempotencyKey string

	useStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		idempotencyKey = r.Header.Get("Idempotency-Key")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_789","object":"payment_intent","status":"succeeded","created":1767225600}`))
	})

	ctx, cancel := context.WithCancel(domain.WithIdempotencyKey(context.Background(), "booking-42-charge"))
	cancel()

	receipt, err := NewStripeCardGateway("usd").Charge(ctx, decimal.RequireFromString("9.00"), "pm_card_visa")
	require.NoError(t, err)

	assert.Equal(t, "pi_789", receipt.TransactionID)
	assert.Equal(t, "booking-42-charge", idempotencyKey)
}

func TestStripeCardGatewayDeclines(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		details string
	}{
		{
			name:    "card error",
			status:  http.StatusPaymentRequired,
			body:    `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`,
			details: "pm_card_chargeDeclined",
		},
		{
			name:    "intent needs further action",
			status:  http.StatusOK,
			body:    `{"id":"pi_456","object":"payment_intent","status":"requires_action","created":1767225600}`,
			details: "pm_card_threeDSecure2Required",
		},
		{
			name:    "details are not a payment method id",
			details: "4111-1111-1111-1111",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := NewStripeCardGateway("usd").Charge(context.Background(), decimal.NewFromInt(10), tt.details)
			assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
		})
	}
}

func TestStripeCardGatewayRefund(t *testing.T) {
	useStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_123", r.PostForm.Get("payment_intent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"re_1","object":"refund","status":"succeeded","payment_intent":"pi_123"}`))
	})

	err := NewStripeCardGateway("usd").Refund(context.Background(), decimal.NewFromInt(10), "pi_123")
	assert.NoError(t, err)
}

func TestStripeCardGatewayRefundFailure(t *testing.T) {
	useStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Charge has already been refunded."}}`))
	})

	err := NewStripeCardGateway("usd").Refund(context.Background(), decimal.NewFromInt(10), "pi_123")
	assert.ErrorIs(t, err, domain.ErrRefundFailed)
}
