package repositories

import (
	"deliverus/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	ListByCustomer(customerID uint) ([]models.Order, error)
	ListByRestaurant(restaurantID uint) ([]models.Order, error)
	// Create persists the order and its lines atomically.
	Create(order *models.Order) error
	// Update replaces the order's lines and mutable fields atomically.
	Update(order *models.Order) error
	// TransitionStatus moves the order from the exact predecessor state to
	// the successor state, stamping the matching lifecycle timestamp.
	// Returns ErrStateConflict when the order is not in the `from` state.
	TransitionStatus(id uint, from, to models.OrderStatus) error
	// Delete removes the order and cascades its lines.
	Delete(id uint) error
}
