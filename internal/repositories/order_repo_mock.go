package repositories

import (
	"fmt"
	"sync"
	"time"

	"deliverus/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[uint]models.Order
	nextID uint
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[uint]models.Order),
		nextID: 1,
	}
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return &order, nil
}

// ListByCustomer returns a customer's orders.
func (r *MockOrderRepository) ListByCustomer(customerID uint) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// ListByRestaurant returns the orders placed at a restaurant.
func (r *MockOrderRepository) ListByRestaurant(restaurantID uint) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.RestaurantID == restaurantID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == 0 {
		order.ID = r.nextID
		r.nextID++
	} else if order.ID >= r.nextID {
		r.nextID = order.ID + 1
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// Update replaces the stored order's lines and mutable fields.
func (r *MockOrderRepository) Update(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %d: %w", order.ID, ErrNotFound)
	}
	stored.Address = order.Address
	stored.Price = order.Price
	stored.Lines = order.Lines
	stored.UpdatedAt = time.Now()
	r.orders[order.ID] = stored
	return nil
}

// TransitionStatus moves the order between lifecycle states, failing with
// ErrStateConflict when it is not in the expected predecessor state.
func (r *MockOrderRepository) TransitionStatus(id uint, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if order.Status != from {
		return fmt.Errorf("order %d is not %s: %w", id, from, ErrStateConflict)
	}
	order.Status = to
	now := time.Now()
	switch to {
	case models.StatusConfirmed:
		order.StartedAt = &now
	case models.StatusSent:
		order.SentAt = &now
	case models.StatusDelivered:
		order.DeliveredAt = &now
	}
	order.UpdatedAt = now
	r.orders[id] = order
	return nil
}

// Delete removes an order.
func (r *MockOrderRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	delete(r.orders, id)
	return nil
}
