package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"gorm.io/gorm"

	"shopnpost/internal/config"
	"shopnpost/internal/database"
	"shopnpost/internal/handlers"
	"shopnpost/internal/middleware"
	"shopnpost/internal/models"
	"shopnpost/internal/payment"
	"shopnpost/internal/repositories"
	"shopnpost/internal/services"
	"shopnpost/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}

	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
	}
	defer mqClient.Close()

	gateways := payment.NewRegistry()
	gateways.Register(models.PaymentMethodStripe, payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.PaymentTimeout, logger))
	gateways.Register(models.PaymentMethodRazorpay, payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.PaymentTimeout, logger))

	app := NewApp(cfg, db, mqClient, gateways, logger)

	// Stand-in for the email service: consume order events and send the
	// confirmation. A failed send is requeued; it never touches the order.
	if err := mqClient.ConsumeNotifications(func(msg amqp.Delivery) error {
		var event struct {
			OrderID string `json:"orderID"`
			Email   string `json:"email"`
		}
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			logger.Warn().Err(err).Msg("discarding malformed order event")
			return nil
		}
		logger.Info().
			Str("order_id", event.OrderID).
			Str("email", event.Email).
			Str("routing_key", msg.RoutingKey).
			Msg("sending order notification")
		return nil
	}); err != nil {
		logger.Error().Err(err).Msg("failed to start notification consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("port", cfg.AppPort).Msg("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	logger.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
	logger.Info().Msg("server stopped")
}

// NewApp wires repositories, services and handlers into a Fiber app. The
// integration tests call it with an in-memory database, a nil publisher and
// fake gateways.
func NewApp(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher, gateways *payment.Registry, logger zerolog.Logger) *fiber.App {
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	uow := repositories.NewGORMUnitOfWork(db)

	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo, logger)
	orderService := services.NewOrderService(orderRepo, cartRepo, productRepo, uow, gateways, publisher, logger)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, logger)

	authHandler := handlers.NewAuthHandler(authService, logger)
	productHandler := handlers.NewProductHandler(productService, logger)
	cartHandler := handlers.NewCartHandler(cartService, logger)
	orderHandler := handlers.NewOrderHandler(orderService, logger)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protected)
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	return app
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
