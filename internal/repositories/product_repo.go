package repositories

import (
	"shopnpost/internal/models"
)

// ProductRepository defines the interface for product data access.
// DecrementStock is a conditional update: it only succeeds when the
// resulting stock stays non-negative, closing the oversell race between
// concurrent checkouts.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	DecrementStock(id string, quantity int) error
	IncrementStock(id string, quantity int) error
}
