package models

import "time"

// PaymentMethod selects the payment gateway used for an order.
type PaymentMethod string

const (
	PaymentMethodStripe   PaymentMethod = "stripe"
	PaymentMethodRazorpay PaymentMethod = "razorpay"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusCancelled = "cancelled"
)

// OrderLineItem is a frozen copy of a product at checkout time. It is
// intentionally decoupled from the Product row: later price or name changes
// never alter a historical order.
type OrderLineItem struct {
	ID        string  `json:"-" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// ShippingAddress is the delivery destination captured on the order.
type ShippingAddress struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// PaymentResult is the opaque handle returned by a payment provider,
// stored for later reconciliation.
type PaymentResult struct {
	PaymentID     string `json:"id"`
	PaymentStatus string `json:"status"`
	UpdateTime    string `json:"update_time"`
	EmailAddress  string `json:"email_address"`
}

// Order is the immutable record of a completed checkout. Only the status
// transition fields (isPaid/paidAt, isDelivered/deliveredAt, status/
// cancelledAt, paymentResult) change after creation.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"user_id" gorm:"index;type:varchar(36)"`
	Items           []OrderLineItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod   PaymentMethod   `json:"payment_method" gorm:"type:varchar(20)"`
	PaymentResult   PaymentResult   `json:"payment_result" gorm:"embedded;embeddedPrefix:payment_"`
	ItemsPrice      float64         `json:"items_price"`
	ShippingPrice   float64         `json:"shipping_price"`
	TaxPrice        float64         `json:"tax_price"`
	TotalPrice      float64         `json:"total_price"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	IsDelivered     bool            `json:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	Status          string          `json:"status" gorm:"type:varchar(20);default:pending"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CanCancel reports whether the order is still cancellable: cancellation is
// only permitted while the order is neither paid, delivered nor already
// cancelled.
func (o *Order) CanCancel() bool {
	return !o.IsPaid && !o.IsDelivered && o.Status != OrderStatusCancelled
}
