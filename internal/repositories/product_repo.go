package repositories

import (
	"deliverus/internal/models"
)

// ProductRepository defines the interface for product data access.
// Products are read-only from the order subsystem's perspective.
type ProductRepository interface {
	GetByRestaurant(restaurantID uint) ([]models.Product, error)
	GetByIDs(ids []uint) ([]models.Product, error)
	// CountAvailable counts products matching the ids with availability=true.
	CountAvailable(ids []uint) (int64, error)
}
