package repositories

import (
	"sync"

	"deliverus/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// Add stores a product, assigning an ID when none is set.
func (r *MockProductRepository) Add(product models.Product) models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		product.ID = r.nextID
		r.nextID++
	} else if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	r.products[product.ID] = product
	return product
}

// GetByRestaurant returns the products of a restaurant.
func (r *MockProductRepository) GetByRestaurant(restaurantID uint) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []models.Product
	for _, p := range r.products {
		if p.RestaurantID == restaurantID {
			products = append(products, p)
		}
	}
	return products, nil
}

// GetByIDs returns the products matching the given ids, skipping missing ones.
func (r *MockProductRepository) GetByIDs(ids []uint) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uint]bool)
	var products []models.Product
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

// CountAvailable counts distinct matching products with availability=true.
func (r *MockProductRepository) CountAvailable(ids []uint) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uint]bool)
	var count int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.products[id]; ok && p.Availability {
			count++
		}
	}
	return count, nil
}
