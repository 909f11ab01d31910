package repositories

import (
	"fmt"
	"time"

	"deliverus/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetByID retrieves a single order with its lines.
func (r *GORMOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

// ListByCustomer retrieves a customer's orders, newest first.
func (r *GORMOrderRepository) ListByCustomer(customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Lines").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %d: %w", customerID, err)
	}
	return orders, nil
}

// ListByRestaurant retrieves all orders placed at a restaurant, newest first.
func (r *GORMOrderRepository) ListByRestaurant(restaurantID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Lines").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for restaurant %d: %w", restaurantID, err)
	}
	return orders, nil
}

// Create persists the order and its lines in a single transaction.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	}); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update replaces the order's lines and saves its mutable fields in a single
// transaction. The old lines are removed before the new ones are inserted.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		for i := range order.Lines {
			order.Lines[i].ID = 0
			order.Lines[i].OrderID = order.ID
		}
		if err := tx.Create(&order.Lines).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"address": order.Address,
				"price":   order.Price,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", order.ID, err)
	}
	return nil
}

// statusStamp maps a successor state to the timestamp column it sets.
var statusStamp = map[models.OrderStatus]string{
	models.StatusConfirmed: "started_at",
	models.StatusSent:      "sent_at",
	models.StatusDelivered: "delivered_at",
}

// TransitionStatus performs a conditional update keyed on the expected
// predecessor state. A concurrent transition that already moved the order
// leaves zero affected rows and surfaces as ErrStateConflict.
func (r *GORMOrderRepository) TransitionStatus(id uint, from, to models.OrderStatus) error {
	updates := map[string]interface{}{"status": to}
	if col, ok := statusStamp[to]; ok {
		updates[col] = time.Now()
	}
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to transition order %d to %s: %w", id, to, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err == nil && count == 0 {
			return fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("order %d is not %s: %w", id, from, ErrStateConflict)
	}
	return nil
}

// Delete removes the order and its lines.
func (r *GORMOrderRepository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	return nil
}
