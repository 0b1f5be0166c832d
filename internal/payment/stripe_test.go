package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"shopnpost/internal/models"
)

func newTestStripeGateway(handler http.Handler) (*StripeGateway, *httptest.Server) {
	srv := httptest.NewServer(handler)
	gw := NewStripeGateway("sk_test_123", 5*time.Second, zerolog.Nop())
	gw.baseURL = srv.URL
	return gw, srv
}

func TestStripeGateway_CreateCharge(t *testing.T) {
	var gotForm map[string]string
	gw, srv := newTestStripeGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		assert.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"amount":   r.PostForm.Get("amount"),
			"currency": r.PostForm.Get("currency"),
			"orderId":  r.PostForm.Get("metadata[orderId]"),
			"email":    r.PostForm.Get("receipt_email"),
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","status":"requires_payment_method","created":1756600000}`))
	}))
	defer srv.Close()

	charge, err := gw.CreateCharge(context.Background(), ChargeRequest{
		Amount:     95.50,
		OrderID:    "order-1",
		UserID:     "user-1",
		PayerEmail: "u@example.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, "pi_123", charge.ProviderID)
	assert.Equal(t, StatusPending, charge.Status)
	assert.Equal(t, "requires_payment_method", charge.RawStatus)
	assert.Equal(t, "9550", gotForm["amount"]) // cents
	assert.Equal(t, "usd", gotForm["currency"])
	assert.Equal(t, "order-1", gotForm["orderId"])
	assert.Equal(t, "u@example.com", gotForm["email"])
}

func TestStripeGateway_CreateCharge_APIError(t *testing.T) {
	gw, srv := newTestStripeGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	_, err := gw.CreateCharge(context.Background(), ChargeRequest{Amount: 10, OrderID: "order-1"})

	var de *models.DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, models.KindPaymentProvider, de.Kind)
	assert.Contains(t, de.Message, "card was declined")
}

func TestStripeGateway_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	gw := NewStripeGateway("sk_test_123", 20*time.Millisecond, zerolog.Nop())
	gw.baseURL = srv.URL

	_, err := gw.CreateCharge(context.Background(), ChargeRequest{Amount: 10, OrderID: "order-1"})

	var de *models.DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, models.KindPaymentProvider, de.Kind)
}

func TestStripeGateway_Refund(t *testing.T) {
	gw, srv := newTestStripeGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refunds", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_123", r.PostForm.Get("payment_intent"))
		// Full refund sends no amount.
		assert.Empty(t, r.PostForm.Get("amount"))
		w.Write([]byte(`{"id":"re_456","status":"succeeded"}`))
	}))
	defer srv.Close()

	refund, err := gw.Refund(context.Background(), "pi_123", 0)

	assert.NoError(t, err)
	assert.Equal(t, "re_456", refund.ProviderID)
	assert.Equal(t, StatusCompleted, refund.Status)
}
