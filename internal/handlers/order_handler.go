package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"shopnpost/internal/middleware"
	"shopnpost/internal/models"
	"shopnpost/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. The admin
// listing is registered before the :id route so "all" never matches as an
// order ID.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/all", middleware.AdminRequired(), h.HandleGetAllOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/pay", h.HandleUpdateOrderToPaid)
	orderRoutes.Put("/:id/deliver", middleware.AdminRequired(), h.HandleUpdateOrderToDelivered)
	orderRoutes.Put("/:id/cancel", h.HandleCancelOrder)
}

// CreateOrderRequest represents the request body for creating an order.
type CreateOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   models.PaymentMethod   `json:"payment_method" validate:"required,oneof=stripe razorpay"`
}

// HandleCreateOrder converts the user's cart into an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.ErrValidation("invalid request body"))
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	order, err := h.service.CreateOrder(
		c.Context(),
		middleware.UserID(c),
		middleware.UserEmail(c),
		req.ShippingAddress,
		req.PaymentMethod,
	)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", middleware.UserID(c)).Msg("order creation failed")
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"data":    order,
	})
}

// HandleGetMyOrders returns one page of the requester's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	orders, total, err := h.service.GetMyOrders(middleware.UserID(c), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data":       orders,
		"pagination": paginationEnvelope(page, limit, total),
	})
}

// HandleGetAllOrders returns one page of all orders. Admin only.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	orders, total, err := h.service.GetAllOrders(page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data":       orders,
		"pagination": paginationEnvelope(page, limit, total),
	})
}

// HandleGetOrderByID returns a single order to its owner or an admin.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"), middleware.UserID(c), middleware.UserRole(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": order})
}

// HandleUpdateOrderToPaid marks an order paid from a provider callback
// payload.
func (h *OrderHandler) HandleUpdateOrderToPaid(c *fiber.Ctx) error {
	var callback services.PaymentCallback
	if err := c.BodyParser(&callback); err != nil {
		return respondError(c, models.ErrValidation("invalid request body"))
	}
	if err := h.validate.Struct(callback); err != nil {
		return respondValidationErrors(c, err)
	}

	order, err := h.service.UpdateOrderToPaid(c.Params("id"), middleware.UserID(c), callback)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order updated to paid",
		"data":    order,
	})
}

// HandleUpdateOrderToDelivered marks an order delivered. Admin only.
func (h *OrderHandler) HandleUpdateOrderToDelivered(c *fiber.Ctx) error {
	order, err := h.service.UpdateOrderToDelivered(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order marked as delivered",
		"data":    order,
	})
}

// HandleCancelOrder cancels an unpaid, undelivered order and restores stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.service.CancelOrder(c.Params("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order cancelled successfully",
		"data":    order,
	})
}
