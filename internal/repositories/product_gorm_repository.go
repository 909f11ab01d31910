package repositories

import (
	"fmt"

	"deliverus/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByRestaurant retrieves all products of a restaurant.
func (r *GORMProductRepository) GetByRestaurant(restaurantID uint) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("restaurant_id = ?", restaurantID).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products for restaurant %d: %w", restaurantID, err)
	}
	return products, nil
}

// GetByIDs retrieves the products matching the given ids. Missing ids are
// simply absent from the result.
func (r *GORMProductRepository) GetByIDs(ids []uint) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products by ids: %w", err)
	}
	return products, nil
}

// CountAvailable counts the products matching the ids with availability=true.
func (r *GORMProductRepository) CountAvailable(ids []uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("id IN ? AND availability = ?", ids, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count available products: %w", err)
	}
	return count, nil
}
