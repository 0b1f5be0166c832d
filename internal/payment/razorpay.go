package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayGateway creates pending charges (provider orders) against the
// regional processor. Amounts are sent in paise; the API is JSON with basic
// authentication.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	logger    zerolog.Logger
}

// NewRazorpayGateway creates a RazorpayGateway with a bounded request timeout.
func NewRazorpayGateway(keyID, keySecret string, timeout time.Duration, logger zerolog.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   razorpayBaseURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With().Str("gateway", "razorpay").Logger(),
	}
}

type razorpayOrder struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// CreateCharge creates a provider order for the total amount.
func (g *RazorpayGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	payload := map[string]interface{}{
		"amount":   minorUnits(req.Amount),
		"currency": strings.ToUpper(currency),
		"receipt":  req.OrderID,
		"notes": map[string]string{
			"orderId": req.OrderID,
			"userId":  req.UserID,
		},
	}

	order, err := g.do(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, err
	}

	g.logger.Info().Str("provider_order", order.ID).Str("status", order.Status).Msg("provider order created")
	return g.toCharge(order), nil
}

// GetCharge retrieves an existing provider order.
func (g *RazorpayGateway) GetCharge(ctx context.Context, providerID string) (*Charge, error) {
	order, err := g.do(ctx, http.MethodGet, "/orders/"+providerID, nil)
	if err != nil {
		return nil, err
	}
	return g.toCharge(order), nil
}

// Refund refunds a captured payment, fully when amount is 0.
func (g *RazorpayGateway) Refund(ctx context.Context, providerID string, amount float64) (*Refund, error) {
	payload := map[string]interface{}{}
	if amount > 0 {
		payload["amount"] = minorUnits(amount)
	}

	refund, err := g.do(ctx, http.MethodPost, "/payments/"+providerID+"/refund", payload)
	if err != nil {
		return nil, err
	}
	g.logger.Info().Str("refund", refund.ID).Str("status", refund.Status).Msg("refund created")
	return &Refund{
		ProviderID: refund.ID,
		Status:     mapStatus(razorpayStatusMap, refund.Status),
		RawStatus:  refund.Status,
	}, nil
}

// VerifyPaymentSignature checks the callback signature for a completed
// payment: HMAC-SHA256 over "<orderID>|<paymentID>" keyed with the key
// secret.
func (g *RazorpayGateway) VerifyPaymentSignature(providerOrderID, paymentID, signature string) bool {
	return VerifySignature([]byte(providerOrderID+"|"+paymentID), signature, g.keySecret)
}

func (g *RazorpayGateway) toCharge(order *razorpayOrder) *Charge {
	updated := time.Now().UTC()
	if order.CreatedAt > 0 {
		updated = time.Unix(order.CreatedAt, 0).UTC()
	}
	return &Charge{
		ProviderID: order.ID,
		Status:     mapStatus(razorpayStatusMap, order.Status),
		RawStatus:  order.Status,
		UpdateTime: updated,
	}
}

func (g *RazorpayGateway) do(ctx context.Context, method, path string, payload interface{}) (*razorpayOrder, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, providerErr(err, "razorpay: failed to encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, providerErr(err, "razorpay: failed to build request")
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, providerErr(err, "razorpay: request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providerErr(err, "razorpay: failed to read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			msg = apiErr.Error.Description
		}
		g.logger.Warn().Int("status_code", resp.StatusCode).Msg("razorpay request rejected")
		return nil, providerErr(nil, "razorpay: %s", msg)
	}

	var order razorpayOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, providerErr(err, "razorpay: failed to decode response")
	}
	return &order, nil
}
