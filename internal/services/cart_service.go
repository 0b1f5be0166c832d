package services

import (
	"errors"

	"github.com/rs/zerolog"

	"shopnpost/internal/models"
	"shopnpost/internal/repositories"
)

// CartService maintains the authoritative pre-checkout selection for a user.
// Stock is re-validated on every mutating call: the cart snapshot can go
// stale between add and checkout, and this is the cheapest place to catch it
// early. The order flow repeats the authoritative check.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository, logger zerolog.Logger) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// AddItem adds quantity of a product to the user's cart, creating the cart
// lazily. Adding an already-present product merges into the existing line
// rather than duplicating it; the cumulative quantity is checked against
// live stock.
func (s *CartService) AddItem(userID, productID string, quantity int) (models.CartView, error) {
	if quantity < 1 {
		return models.EmptyCartView(), models.ErrValidation("quantity must be at least 1")
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return models.EmptyCartView(), err
	}

	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if !isNotFound(err) {
			return models.EmptyCartView(), err
		}
		cart = &models.Cart{UserID: userID}
	}

	newQuantity := quantity
	if existing := cart.FindItem(productID); existing != nil {
		newQuantity += existing.Quantity
	}
	if product.Stock < newQuantity {
		return models.EmptyCartView(), models.ErrInsufficientStock("insufficient stock for %s", product.Name)
	}

	if existing := cart.FindItem(productID); existing != nil {
		existing.Quantity = newQuantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			Price:     product.Price, // snapshot at add time
		})
	}

	if err := s.cartRepo.Save(cart); err != nil {
		return models.EmptyCartView(), err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("product_id", productID).
		Int("quantity", newQuantity).
		Msg("item added to cart")
	return cart.View(), nil
}

// UpdateItemQuantity replaces the stored quantity of an existing cart line
// after re-checking live stock.
func (s *CartService) UpdateItemQuantity(userID, productID string, quantity int) (models.CartView, error) {
	if quantity < 1 {
		return models.EmptyCartView(), models.ErrValidation("quantity must be at least 1")
	}

	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		return models.EmptyCartView(), err
	}

	item := cart.FindItem(productID)
	if item == nil {
		return models.EmptyCartView(), models.ErrNotFound("item not found in cart")
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return models.EmptyCartView(), err
	}
	if product.Stock < quantity {
		return models.EmptyCartView(), models.ErrInsufficientStock("insufficient stock for %s", product.Name)
	}

	item.Quantity = quantity
	if err := s.cartRepo.Save(cart); err != nil {
		return models.EmptyCartView(), err
	}
	return cart.View(), nil
}

// RemoveItem filters a product out of the cart. Idempotent: a missing cart
// or absent line is not an error.
func (s *CartService) RemoveItem(userID, productID string) (models.CartView, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if isNotFound(err) {
			return models.EmptyCartView(), nil
		}
		return models.EmptyCartView(), err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.cartRepo.Save(cart); err != nil {
		return models.EmptyCartView(), err
	}
	return cart.View(), nil
}

// Clear deletes the user's cart. Idempotent.
func (s *CartService) Clear(userID string) error {
	return s.cartRepo.DeleteByUserID(userID)
}

// GetCart returns the user's cart, or an empty-cart value when none exists.
// Never an error for an absent cart.
func (s *CartService) GetCart(userID string) (models.CartView, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if isNotFound(err) {
			return models.EmptyCartView(), nil
		}
		return models.EmptyCartView(), err
	}
	return cart.View(), nil
}

func isNotFound(err error) bool {
	var de *models.DomainError
	return errors.As(err, &de) && de.Kind == models.KindNotFound
}
