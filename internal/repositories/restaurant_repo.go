package repositories

import (
	"deliverus/internal/models"
)

// RestaurantRepository defines the interface for restaurant data access.
type RestaurantRepository interface {
	GetAll() ([]models.Restaurant, error)
	GetByID(id uint) (*models.Restaurant, error)
	Create(restaurant *models.Restaurant) error
}
