package repositories

import (
	"fmt"
	"sync"

	"deliverus/internal/models"
)

// MockRestaurantRepository is an in-memory implementation of RestaurantRepository.
type MockRestaurantRepository struct {
	restaurants map[uint]models.Restaurant
	nextID      uint
	mu          sync.RWMutex
}

// NewMockRestaurantRepository creates a new instance of MockRestaurantRepository.
func NewMockRestaurantRepository() *MockRestaurantRepository {
	return &MockRestaurantRepository{
		restaurants: make(map[uint]models.Restaurant),
		nextID:      1,
	}
}

// GetAll returns all restaurants.
func (r *MockRestaurantRepository) GetAll() ([]models.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	restaurants := make([]models.Restaurant, 0, len(r.restaurants))
	for _, restaurant := range r.restaurants {
		restaurants = append(restaurants, restaurant)
	}
	return restaurants, nil
}

// GetByID returns a restaurant by its ID.
func (r *MockRestaurantRepository) GetByID(id uint) (*models.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	restaurant, ok := r.restaurants[id]
	if !ok {
		return nil, fmt.Errorf("restaurant %d: %w", id, ErrNotFound)
	}
	return &restaurant, nil
}

// Create adds a new restaurant.
func (r *MockRestaurantRepository) Create(restaurant *models.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if restaurant.ID == 0 {
		restaurant.ID = r.nextID
		r.nextID++
	} else if restaurant.ID >= r.nextID {
		r.nextID = restaurant.ID + 1
	}
	r.restaurants[restaurant.ID] = *restaurant
	return nil
}
