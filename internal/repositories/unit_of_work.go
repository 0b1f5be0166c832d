package repositories

import (
	"gorm.io/gorm"
)

// Repositories bundles the transaction-scoped repositories handed to a
// unit-of-work callback.
type Repositories struct {
	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
}

// UnitOfWork runs a function against a single database transaction. The
// order flow uses it to make order persistence, stock decrement and cart
// deletion one atomic step: if any of them fails, none of them happened.
type UnitOfWork interface {
	Do(fn func(r *Repositories) error) error
}

// GORMUnitOfWork is a GORM implementation of UnitOfWork.
type GORMUnitOfWork struct {
	db *gorm.DB
}

// NewGORMUnitOfWork creates a new instance of GORMUnitOfWork.
func NewGORMUnitOfWork(db *gorm.DB) *GORMUnitOfWork {
	return &GORMUnitOfWork{
		db: db,
	}
}

// Do executes fn inside one transaction, committing on nil and rolling back
// on error.
func (u *GORMUnitOfWork) Do(fn func(r *Repositories) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repositories{
			Products: NewGORMProductRepository(tx),
			Carts:    NewGORMCartRepository(tx),
			Orders:   NewGORMOrderRepository(tx),
		})
	})
}
