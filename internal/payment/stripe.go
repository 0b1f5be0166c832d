package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const stripeBaseURL = "https://api.stripe.com/v1"

// StripeGateway creates pending charges (payment intents) against the
// card-network processor. Amounts are sent in cents; the API is
// form-encoded with bearer authentication.
type StripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
	logger    zerolog.Logger
}

// NewStripeGateway creates a StripeGateway with a bounded request timeout.
func NewStripeGateway(secretKey string, timeout time.Duration, logger zerolog.Logger) *StripeGateway {
	return &StripeGateway{
		secretKey: secretKey,
		baseURL:   stripeBaseURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With().Str("gateway", "stripe").Logger(),
	}
}

// stripePaymentIntent is the subset of the payment intent payload we read.
type stripePaymentIntent struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Created int64  `json:"created"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCharge creates a payment intent for the order total.
func (g *StripeGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(minorUnits(req.Amount), 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("metadata[orderId]", req.OrderID)
	form.Set("metadata[userId]", req.UserID)
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.PayerEmail != "" {
		form.Set("receipt_email", req.PayerEmail)
	}

	intent, err := g.do(ctx, http.MethodPost, "/payment_intents", form)
	if err != nil {
		return nil, err
	}

	g.logger.Info().Str("payment_intent", intent.ID).Str("status", intent.Status).Msg("payment intent created")
	return g.toCharge(intent), nil
}

// GetCharge retrieves an existing payment intent.
func (g *StripeGateway) GetCharge(ctx context.Context, providerID string) (*Charge, error) {
	intent, err := g.do(ctx, http.MethodGet, "/payment_intents/"+providerID, nil)
	if err != nil {
		return nil, err
	}
	return g.toCharge(intent), nil
}

// Refund refunds a payment intent, fully when amount is 0.
func (g *StripeGateway) Refund(ctx context.Context, providerID string, amount float64) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", providerID)
	if amount > 0 {
		form.Set("amount", strconv.FormatInt(minorUnits(amount), 10))
	}

	intent, err := g.do(ctx, http.MethodPost, "/refunds", form)
	if err != nil {
		return nil, err
	}
	g.logger.Info().Str("refund", intent.ID).Str("status", intent.Status).Msg("refund created")
	return &Refund{
		ProviderID: intent.ID,
		Status:     mapStatus(stripeStatusMap, intent.Status),
		RawStatus:  intent.Status,
	}, nil
}

func (g *StripeGateway) toCharge(intent *stripePaymentIntent) *Charge {
	updated := time.Now().UTC()
	if intent.Created > 0 {
		updated = time.Unix(intent.Created, 0).UTC()
	}
	return &Charge{
		ProviderID: intent.ID,
		Status:     mapStatus(stripeStatusMap, intent.Status),
		RawStatus:  intent.Status,
		UpdateTime: updated,
	}
}

func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values) (*stripePaymentIntent, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, providerErr(err, "stripe: failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, providerErr(err, "stripe: request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providerErr(err, "stripe: failed to read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		g.logger.Warn().Int("status_code", resp.StatusCode).Msg("stripe request rejected")
		return nil, providerErr(nil, "stripe: %s", msg)
	}

	var intent stripePaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, providerErr(err, "stripe: failed to decode response")
	}
	return &intent, nil
}
