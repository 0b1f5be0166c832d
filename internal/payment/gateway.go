package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"shopnpost/internal/models"
)

// Status is the shared payment status vocabulary. Provider-native statuses
// are mapped onto it; anything unmapped resolves to StatusUnknown rather
// than erroring.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusAuthorized Status = "authorized"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
	StatusUnknown    Status = "unknown"
)

// ChargeRequest describes a pending charge to create. Amount is the decimal
// order total; each gateway converts it to its own minor currency unit.
type ChargeRequest struct {
	Amount     float64
	Currency   string
	OrderID    string
	UserID     string
	PayerEmail string
}

// Charge is the opaque pending-payment handle returned by a provider.
type Charge struct {
	ProviderID string
	Status     Status
	RawStatus  string
	UpdateTime time.Time
}

// Refund is the result of a refund request.
type Refund struct {
	ProviderID string
	Status     Status
	RawStatus  string
}

// Gateway is the capability boundary over a payment provider. Both variants
// are interchangeable from the order flow's point of view.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetCharge(ctx context.Context, providerID string) (*Charge, error)
	// Refund issues a full refund when amount is 0, partial otherwise.
	Refund(ctx context.Context, providerID string, amount float64) (*Refund, error)
}

// Registry selects a Gateway by the order's declared payment method, keeping
// provider branching out of the order flow.
type Registry struct {
	gateways map[models.PaymentMethod]Gateway
}

// NewRegistry creates a registry from the given method-to-gateway bindings.
func NewRegistry() *Registry {
	return &Registry{
		gateways: make(map[models.PaymentMethod]Gateway),
	}
}

// Register binds a gateway to a payment method.
func (r *Registry) Register(method models.PaymentMethod, gw Gateway) {
	r.gateways[method] = gw
}

// Get returns the gateway for a payment method.
func (r *Registry) Get(method models.PaymentMethod) (Gateway, error) {
	gw, ok := r.gateways[method]
	if !ok {
		return nil, models.ErrValidation("unsupported payment method: %s", method)
	}
	return gw, nil
}

// minorUnits converts a decimal amount to the smallest currency unit
// (cents, paise), rounding to the nearest unit.
func minorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func providerErr(cause error, format string, args ...interface{}) error {
	return models.WrapDomainError(models.KindPaymentProvider, cause, format, args...)
}
