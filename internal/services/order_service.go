package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"shopnpost/internal/models"
	"shopnpost/internal/payment"
	"shopnpost/internal/repositories"
)

// Pricing constants: flat shipping under the free-shipping threshold and a
// 15% tax rate, both applied to the authoritative items total.
const (
	freeShippingThreshold = 100
	flatShippingPrice     = 15
	taxRate               = "0.15"
)

// EventPublisher is the fire-and-forget notification channel for order
// events. Publish failures never roll back an order.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// PaymentCallback is the provider confirmation payload applied when an order
// is marked paid.
type PaymentCallback struct {
	ID           string `json:"id" validate:"required"`
	Status       string `json:"status" validate:"required"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address" validate:"omitempty,email"`
}

// OrderService converts cart snapshots into immutable orders and drives
// their status transitions.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	uow         repositories.UnitOfWork
	gateways    *payment.Registry
	publisher   EventPublisher
	logger      zerolog.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case notifications are skipped.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	uow repositories.UnitOfWork,
	gateways *payment.Registry,
	publisher EventPublisher,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		uow:         uow,
		gateways:    gateways,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder snapshots the user's cart into an immutable order: validates
// every line against live stock, recomputes authoritative pricing from
// current product prices, initiates a pending charge with the selected
// payment gateway, then persists the order, decrements stock and deletes the
// cart in one transaction. Validation happens strictly before any mutation.
func (s *OrderService) CreateOrder(ctx context.Context, userID, payerEmail string, address models.ShippingAddress, method models.PaymentMethod) (*models.Order, error) {
	gw, err := s.gateways.Get(method)
	if err != nil {
		return nil, err
	}

	// Step 1: load the cart; an absent or empty cart is an invalid state.
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if isNotFound(err) {
			return nil, models.ErrInvalidState("cart is empty")
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, models.ErrInvalidState("cart is empty")
	}

	// Step 2: re-validate every line against the live product. Time has
	// passed since the items were added; the cart snapshot is not trusted.
	// Step 3: recompute pricing from the current product price, not the
	// snapshot.
	itemsPrice := decimal.Zero
	lineItems := make([]models.OrderLineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < item.Quantity {
			return nil, models.ErrInsufficientStock("insufficient stock for %s", product.Name)
		}

		itemsPrice = itemsPrice.Add(decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))

		// Step 4: freeze name/price/image at this instant.
		lineItems = append(lineItems, models.OrderLineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.FirstImage(),
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
	}

	shippingPrice := decimal.NewFromInt(flatShippingPrice)
	if itemsPrice.GreaterThan(decimal.NewFromInt(freeShippingThreshold)) {
		shippingPrice = decimal.Zero
	}
	taxPrice := itemsPrice.Mul(decimal.RequireFromString(taxRate)).Round(2)
	totalPrice := itemsPrice.Add(shippingPrice).Add(taxPrice).Round(2)

	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Items:           lineItems,
		ShippingAddress: address,
		PaymentMethod:   method,
		ItemsPrice:      itemsPrice.InexactFloat64(),
		ShippingPrice:   shippingPrice.InexactFloat64(),
		TaxPrice:        taxPrice.InexactFloat64(),
		TotalPrice:      totalPrice.InexactFloat64(),
		Status:          models.OrderStatusPending,
	}

	// Step 5: initiate the pending charge. A failure here means no money
	// moved and nothing was persisted.
	charge, err := gw.CreateCharge(ctx, payment.ChargeRequest{
		Amount:     order.TotalPrice,
		OrderID:    order.ID,
		UserID:     userID,
		PayerEmail: payerEmail,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("payment initiation failed")
		return nil, err
	}
	order.PaymentResult = models.PaymentResult{
		PaymentID:     charge.ProviderID,
		PaymentStatus: string(charge.Status),
		UpdateTime:    charge.UpdateTime.Format(time.RFC3339),
		EmailAddress:  payerEmail,
	}

	// Steps 6-8: persist the order, decrement stock and delete the cart as
	// one transaction. The decrement is conditional, so a concurrent
	// checkout that drained stock rolls everything back here.
	err = s.uow.Do(func(r *repositories.Repositories) error {
		if err := r.Orders.Create(order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := r.Products.DecrementStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return r.Carts.DeleteByUserID(userID)
	})
	if err != nil {
		s.compensateCharge(ctx, gw, charge, order)
		return nil, err
	}

	s.publishOrderEvent("order.created", order)

	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", userID).
		Float64("total", order.TotalPrice).
		Msg("order created")
	return order, nil
}

// compensateCharge attempts a best-effort refund when persistence fails
// after a successful charge. The outcome is logged either way; a failed
// refund is left for provider-side reconciliation.
func (s *OrderService) compensateCharge(ctx context.Context, gw payment.Gateway, charge *payment.Charge, order *models.Order) {
	if _, err := gw.Refund(ctx, charge.ProviderID, 0); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID).
			Str("payment_id", charge.ProviderID).
			Msg("compensating refund failed; charge needs reconciliation")
		return
	}
	s.logger.Warn().
		Str("order_id", order.ID).
		Str("payment_id", charge.ProviderID).
		Msg("order persistence failed; charge refunded")
}

// CancelOrder cancels an unpaid, undelivered order owned by the requester
// and restores the ordered quantities to product stock.
func (s *OrderService) CancelOrder(orderID, requesterID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID {
		return nil, models.ErrForbidden("not authorized to cancel this order")
	}
	if order.IsPaid {
		return nil, models.ErrInvalidState("cannot cancel a paid order")
	}
	if order.IsDelivered {
		return nil, models.ErrInvalidState("cannot cancel a delivered order")
	}
	if order.Status == models.OrderStatusCancelled {
		// A repeated cancel must not restore stock a second time.
		return nil, models.ErrInvalidState("order is already cancelled")
	}

	now := time.Now()
	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now

	err = s.uow.Do(func(r *repositories.Repositories) error {
		if err := r.Orders.Update(order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := r.Products.IncrementStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderEvent("order.cancelled", order)

	s.logger.Info().Str("order_id", orderID).Msg("order cancelled")
	return order, nil
}

// UpdateOrderToPaid marks an order paid from a provider confirmation
// callback. Owner-only.
func (s *OrderService) UpdateOrderToPaid(orderID, requesterID string, callback PaymentCallback) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID {
		return nil, models.ErrForbidden("not authorized to update this order")
	}

	now := time.Now()
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = models.PaymentResult{
		PaymentID:     callback.ID,
		PaymentStatus: callback.Status,
		UpdateTime:    callback.UpdateTime,
		EmailAddress:  callback.EmailAddress,
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", orderID).Msg("order marked paid")
	return order, nil
}

// UpdateOrderToDelivered marks an order delivered. Payment state is
// deliberately not a precondition; delivery and payment are independent
// flags.
func (s *OrderService) UpdateOrderToDelivered(orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order.IsDelivered = true
	order.DeliveredAt = &now

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", orderID).Msg("order marked delivered")
	return order, nil
}

// GetOrderByID returns an order to its owner or to an admin.
func (s *OrderService) GetOrderByID(orderID, requesterID, requesterRole string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID && requesterRole != models.RoleAdmin {
		return nil, models.ErrForbidden("not authorized to view this order")
	}
	return order, nil
}

// GetMyOrders returns one page of the requester's orders, newest first.
func (s *OrderService) GetMyOrders(userID string, page, limit int) ([]models.Order, int64, error) {
	page, limit = normalizePage(page, limit, 10)
	return s.orderRepo.GetByUserID(userID, page, limit)
}

// GetAllOrders returns one page of all orders, newest first. Admin surface.
func (s *OrderService) GetAllOrders(page, limit int) ([]models.Order, int64, error) {
	page, limit = normalizePage(page, limit, 20)
	return s.orderRepo.GetAll(page, limit)
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

func (s *OrderService) publishOrderEvent(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  order.Status,
		"total":   order.TotalPrice,
		"email":   order.PaymentResult.EmailAddress,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal order event")
		return
	}
	if err := s.publisher.Publish("order", routingKey, body); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Str("event", routingKey).Msg("failed to publish order event")
	}
}
