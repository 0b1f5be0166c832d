package repositories

import (
	"shopnpost/internal/models"
)

// CartRepository defines the interface for cart data access. Each user owns
// at most one cart; Save replaces the stored line items with the ones on the
// given cart.
type CartRepository interface {
	GetByUserID(userID string) (*models.Cart, error)
	Save(cart *models.Cart) error
	DeleteByUserID(userID string) error
}
