package repositories

import (
	"fmt"

	"deliverus/internal/models"

	"gorm.io/gorm"
)

// GORMRestaurantRepository is a GORM implementation of RestaurantRepository.
type GORMRestaurantRepository struct {
	db *gorm.DB
}

// NewGORMRestaurantRepository creates a new instance of GORMRestaurantRepository.
func NewGORMRestaurantRepository(db *gorm.DB) *GORMRestaurantRepository {
	return &GORMRestaurantRepository{
		db: db,
	}
}

// GetAll retrieves all restaurants.
func (r *GORMRestaurantRepository) GetAll() ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	if err := r.db.Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("failed to get all restaurants: %w", err)
	}
	return restaurants, nil
}

// GetByID retrieves a single restaurant by its ID.
func (r *GORMRestaurantRepository) GetByID(id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.First(&restaurant, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("restaurant %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get restaurant %d: %w", id, err)
	}
	return &restaurant, nil
}

// Create creates a new restaurant.
func (r *GORMRestaurantRepository) Create(restaurant *models.Restaurant) error {
	if err := r.db.Create(restaurant).Error; err != nil {
		return fmt.Errorf("failed to create restaurant: %w", err)
	}
	return nil
}
