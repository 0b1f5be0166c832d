package repositories

import (
	"shopnpost/internal/models"
)

// OrderRepository defines the interface for order data access. Listings are
// paginated and sorted newest-first.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByUserID(userID string, page, limit int) ([]models.Order, int64, error)
	GetAll(page, limit int) ([]models.Order, int64, error)
	Update(order *models.Order) error
}
